package middleware

import (
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader는 request ID 헤더 이름입니다
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey는 gin context에서 request ID를 저장하는 키입니다
	RequestIDKey = "request_id"
)

// RequestID는 요청마다 고유한 ID를 부여하고 로거 컨텍스트에 싣습니다
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := logger.WithFields(c.Request.Context(), logger.RequestID(requestID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID는 context에서 request ID를 반환합니다
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
