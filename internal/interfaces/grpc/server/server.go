package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/YouSangSon/docstore-service/internal/interfaces/grpc/interceptor"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName은 사용자 서비스의 health 서비스 이름입니다
const ServiceName = "docstore.users"

const defaultHealthInterval = 10 * time.Second

// Checker는 저장소 연결 상태를 확인합니다
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Config는 gRPC 서버 설정입니다
type Config struct {
	Host             string
	Port             int
	EnableReflection bool
	EnableTracing    bool
	HealthInterval   time.Duration
}

// Server는 grpc.health.v1.Health를 제공하는 gRPC 서버입니다
// 주기적으로 저장소에 ping을 보내 SERVING/NOT_SERVING 상태를 바꿉니다
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	checker    Checker
	interval   time.Duration
	addr       string

	mu      sync.Mutex
	serving healthpb.HealthCheckResponse_ServingStatus
}

// New는 인터셉터와 health 서비스를 등록한 서버를 생성합니다
func New(cfg Config, checker Checker, m *metrics.Metrics) *Server {
	unary := []grpc.UnaryServerInterceptor{
		interceptor.UnaryRecoveryInterceptor(),
		interceptor.UnaryLoggingInterceptor(),
	}
	if cfg.EnableTracing {
		unary = append(unary, interceptor.UnaryTracingInterceptor())
	}
	unary = append(unary,
		interceptor.UnaryMetricsInterceptor(m),
		interceptor.UnaryErrorHandlerInterceptor(),
	)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(
			interceptor.StreamRecoveryInterceptor(),
			interceptor.StreamLoggingInterceptor(),
			interceptor.StreamMetricsInterceptor(m),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	if cfg.EnableReflection {
		reflection.Register(grpcServer)
	}

	interval := cfg.HealthInterval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	s := &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		checker:    checker,
		interval:   interval,
		addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		serving:    healthpb.HealthCheckResponse_UNKNOWN,
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Addr는 리스닝 주소를 반환합니다
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe는 설정된 주소에서 요청을 처리합니다
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve는 주어진 리스너에서 요청을 처리합니다
func (s *Server) Serve(lis net.Listener) error {
	logger.Info(context.Background(), "gRPC server listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// RunHealthReporter는 ctx가 끝날 때까지 주기적으로 상태를 갱신합니다
func (s *Server) RunHealthReporter(ctx context.Context) {
	s.Report(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Report(ctx)
		}
	}
}

// Report는 저장소 상태를 한 번 확인해 serving 상태에 반영합니다
func (s *Server) Report(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	checkCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.checker.HealthCheck(checkCtx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		logger.Warn(ctx, "store health check failed", zap.Error(err))
	}

	s.setStatus(status)
	return status
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.serving == status {
		return
	}
	if s.serving != healthpb.HealthCheckResponse_UNKNOWN {
		logger.Info(context.Background(), "serving status changed",
			zap.String("from", s.serving.String()),
			zap.String("to", status.String()),
		)
	}
	s.serving = status

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Shutdown은 health 상태를 NOT_SERVING으로 바꾸고 서버를 정상 종료합니다
// ctx가 먼저 끝나면 강제로 종료합니다
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
		<-done
	}
}
