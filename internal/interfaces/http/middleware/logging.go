package middleware

import (
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger는 요청 완료 시 상태 코드에 따른 레벨로 로깅합니다
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		ctx := c.Request.Context()
		duration := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			logger.HTTPMethod(c.Request.Method),
			logger.HTTPPath(path),
			logger.HTTPStatus(status),
			logger.RemoteAddr(c.ClientIP()),
			logger.DurationMs(duration),
			zap.Int("response_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= 500:
			logger.Error(ctx, "request completed", fields...)
		case status >= 400:
			logger.Warn(ctx, "request completed", fields...)
		default:
			logger.Info(ctx, "request completed", fields...)
		}
	}
}
