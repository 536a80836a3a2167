package middleware

import (
	"strconv"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics는 HTTP 요청 수와 지연 시간을 기록합니다
// 경로 파라미터로 라벨이 늘어나지 않도록 라우트 템플릿을 사용합니다
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
