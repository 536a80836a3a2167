package middleware

import (
	"github.com/YouSangSon/docstore-service/internal/pkg/auth"
	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// UserIDKey는 인증된 사용자 ID를 저장하는 gin context 키입니다
const UserIDKey = "user_id"

// Authenticate는 Authorization 헤더의 access 토큰을 검증합니다
func Authenticate(issuer *auth.Issuer, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := issuer.ExtractToken(c.GetHeader("Authorization"))
		if err == nil && token.Kind != auth.TokenKindAccess {
			err = errors.Unauthorized()
		}
		if err != nil {
			m.RecordTokenValidation("rejected")
			RespondError(c, err)
			return
		}

		m.RecordTokenValidation("accepted")
		c.Set(UserIDKey, token.UserID)
		ctx := logger.WithFields(c.Request.Context(), logger.UserID(token.UserID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserID는 인증된 사용자 ID를 반환합니다
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
