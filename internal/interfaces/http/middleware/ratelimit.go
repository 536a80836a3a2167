package middleware

import (
	"net/http"
	"strconv"

	"github.com/YouSangSon/docstore-service/internal/infrastructure/cache"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit는 클라이언트 IP 기준 rate limiting 미들웨어입니다
// Redis 오류 시에는 요청을 통과시킵니다
func RateLimit(limiter *cache.RateLimiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientIP := c.ClientIP()

		allowed, err := limiter.Allow(ctx, clientIP)
		if err != nil {
			logger.Error(ctx, "rate limit check failed",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			m.RecordRateLimited()
			logger.Warn(ctx, "rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.Int64("limit", limiter.Limit()),
			)

			c.Header("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "rate limit exceeded",
				},
				"request_id": GetRequestID(c),
			})
			return
		}

		c.Next()
	}
}
