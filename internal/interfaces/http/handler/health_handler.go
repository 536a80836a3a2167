package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Checker는 의존성 상태를 확인합니다
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc는 함수를 Checker로 사용하게 합니다
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler는 헬스체크 핸들러입니다
type HealthHandler struct {
	version      string
	database     Checker
	dependencies map[string]Checker
}

// NewHealthHandler는 새로운 HealthHandler를 생성합니다
// database 실패는 unhealthy, 그 외 의존성 실패는 degraded로 보고합니다
func NewHealthHandler(version string, database Checker, dependencies map[string]Checker) *HealthHandler {
	return &HealthHandler{
		version:      version,
		database:     database,
		dependencies: dependencies,
	}
}

// HealthResponse는 상세 헬스체크 응답입니다
type HealthResponse struct {
	Status    string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// HealthCheck는 개별 의존성 체크 결과입니다
type HealthCheck struct {
	Status   string  `json:"status"`
	Message  string  `json:"message,omitempty"`
	Duration float64 `json:"duration_ms"`
}

// Live는 프로세스가 응답 가능한지만 확인합니다
func (h *HealthHandler) Live(c *gin.Context) {
	c.String(http.StatusOK, "Ok")
}

// Health는 모든 의존성 상태를 보고합니다
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   h.version,
		Checks:    make(map[string]HealthCheck, len(h.dependencies)+1),
	}

	database := runCheck(ctx, h.database)
	if database.Status != "healthy" {
		response.Status = "unhealthy"
	}
	response.Checks["mongodb"] = database

	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := runCheck(ctx, h.dependencies[name])
		if check.Status != "healthy" && response.Status == "healthy" {
			response.Status = "degraded"
		}
		response.Checks[name] = check
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// Ready는 데이터베이스 연결만 확인합니다
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.database.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "mongodb connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

func runCheck(ctx context.Context, checker Checker) HealthCheck {
	start := time.Now()
	err := checker.HealthCheck(ctx)
	check := HealthCheck{
		Status:   "healthy",
		Duration: float64(time.Since(start).Milliseconds()),
	}
	if err != nil {
		check.Status = "unhealthy"
		check.Message = err.Error()
	}
	return check
}
