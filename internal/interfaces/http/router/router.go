package router

import (
	"github.com/YouSangSon/docstore-service/internal/infrastructure/cache"
	httpHandler "github.com/YouSangSon/docstore-service/internal/interfaces/http/handler"
	"github.com/YouSangSon/docstore-service/internal/interfaces/http/middleware"
	"github.com/YouSangSon/docstore-service/internal/pkg/auth"
	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options는 라우터 구성 옵션입니다
type Options struct {
	Environment   string
	EnableCORS    bool
	EnableTracing bool
	EnableMetrics bool
	MetricsPath   string
	// RateLimiter가 nil이면 rate limiting을 적용하지 않습니다
	RateLimiter *cache.RateLimiter
}

// SetupRouter는 API 서버의 모든 라우트를 구성합니다
func SetupRouter(
	userHandler *httpHandler.UserHandler,
	healthHandler *httpHandler.HealthHandler,
	issuer *auth.Issuer,
	m *metrics.Metrics,
	opts Options,
) *gin.Engine {
	if opts.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if opts.EnableCORS {
		router.Use(middleware.CORS())
	}
	if opts.EnableTracing {
		router.Use(middleware.Tracing())
	}
	if opts.EnableMetrics {
		router.Use(middleware.Metrics(m))
	}

	// ============================================
	// Health & Metrics (no rate limit)
	// ============================================
	router.GET("/health-check", healthHandler.Live)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	if opts.EnableMetrics {
		metricsPath := opts.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		router.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api")
	if opts.RateLimiter != nil {
		api.Use(middleware.RateLimit(opts.RateLimiter, m))
	}

	users := api.Group("/users")
	{
		users.POST("/create", userHandler.Create)
		users.GET("/health-check", userHandler.Health)

		authed := users.Group("")
		authed.Use(middleware.Authenticate(issuer, m))
		authed.GET("/all", userHandler.List)
		authed.GET("/stats", userHandler.Stats)
		authed.GET("/:id", userHandler.Get)
		authed.PUT("/:id", userHandler.Update)
		authed.DELETE("/:id", userHandler.Delete)
	}

	api.POST("/auth/refresh", userHandler.Refresh)

	return router
}
