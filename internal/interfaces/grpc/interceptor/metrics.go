package interceptor

import (
	"context"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// UnaryMetricsInterceptor는 unary 요청 수와 지연 시간을 기록합니다
func UnaryMetricsInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.RecordGRPCRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// StreamMetricsInterceptor는 stream 요청 수와 지속 시간을 기록합니다
func StreamMetricsInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		m.RecordGRPCRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
		return err
	}
}
