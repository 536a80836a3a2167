package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery는 패닉을 복구하고 500 에러를 반환합니다
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					logger.HTTPMethod(c.Request.Method),
					logger.HTTPPath(c.Request.URL.Path),
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
				)
				RespondError(c, errors.Internal("internal server error"))
			}
		}()

		c.Next()
	}
}

// RespondError는 에러를 표준 형식으로 응답하고 체인을 중단합니다
// AppError가 아닌 에러는 500으로 응답합니다
func RespondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		appErr = errors.Internal(err.Error())
	}

	_ = c.Error(appErr)

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      body,
		"request_id": GetRequestID(c),
	})
}

// CORS는 모든 origin/header/method를 허용하는 CORS 헤더를 설정합니다
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		}

		h := c.Writer.Header()
		// credentials를 허용하므로 와일드카드 대신 요청 origin을 돌려줍니다
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Max-Age", "3600")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
