package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics는 애플리케이션 메트릭을 관리합니다
type Metrics struct {
	// HTTP 메트릭
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// gRPC 메트릭
	GRPCRequestsTotal   *prometheus.CounterVec
	GRPCRequestDuration *prometheus.HistogramVec

	// 데이터베이스 메트릭
	DBOperationsTotal   *prometheus.CounterVec
	DBOperationDuration *prometheus.HistogramVec

	// 인증 메트릭
	TokenValidationsTotal *prometheus.CounterVec

	// Rate limit 메트릭
	RateLimitedTotal prometheus.Counter

	// 이벤트 발행 메트릭
	EventsPublishedTotal *prometheus.CounterVec
}

var (
	globalMetrics *Metrics
	initOnce      sync.Once
)

// New는 주어진 registerer에 메트릭을 등록합니다
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		GRPCRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grpc_requests_total",
				Help:      "Total number of gRPC requests",
			},
			[]string{"method", "code"},
		),
		GRPCRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "grpc_request_duration_seconds",
				Help:      "gRPC request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		DBOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_operations_total",
				Help:      "Total number of database operations",
			},
			[]string{"operation", "collection", "status"},
		),
		DBOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_operation_duration_seconds",
				Help:      "Database operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "collection"},
		),
		TokenValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_validations_total",
				Help:      "Total number of session token validations",
			},
			[]string{"result"},
		),
		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),
		EventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Total number of change events published",
			},
			[]string{"event_type", "status"},
		),
	}
}

// Init은 기본 registry에 메트릭을 한 번만 등록합니다
func Init(namespace string) *Metrics {
	initOnce.Do(func() {
		globalMetrics = New(namespace, prometheus.DefaultRegisterer)
	})
	return globalMetrics
}

// GetMetrics는 글로벌 메트릭 인스턴스를 반환합니다
func GetMetrics() *Metrics {
	return Init("docstore_service")
}

// RecordHTTPRequest는 HTTP 요청 메트릭을 기록합니다
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordGRPCRequest는 gRPC 요청 메트릭을 기록합니다
func (m *Metrics) RecordGRPCRequest(method, code string, duration time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordDBOperation은 데이터베이스 작업 메트릭을 기록합니다
func (m *Metrics) RecordDBOperation(operation, collection, status string, duration time.Duration) {
	m.DBOperationsTotal.WithLabelValues(operation, collection, status).Inc()
	m.DBOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
}

// RecordTokenValidation은 토큰 검증 결과를 기록합니다
func (m *Metrics) RecordTokenValidation(result string) {
	m.TokenValidationsTotal.WithLabelValues(result).Inc()
}

// RecordRateLimited는 rate limit으로 거부된 요청을 기록합니다
func (m *Metrics) RecordRateLimited() {
	m.RateLimitedTotal.Inc()
}

// RecordEventPublished는 이벤트 발행 결과를 기록합니다
func (m *Metrics) RecordEventPublished(eventType, status string) {
	m.EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
