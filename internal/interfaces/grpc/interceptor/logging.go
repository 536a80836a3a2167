package interceptor

import (
	"context"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDMetadataKey는 request ID metadata 키입니다
const RequestIDMetadataKey = "x-request-id"

// UnaryLoggingInterceptor는 request ID를 로거 컨텍스트에 싣고 요청 결과를 로깅합니다
func UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		ctx = withRequestID(ctx)

		resp, err := handler(ctx, req)

		logCompletion(ctx, "gRPC request", info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// StreamLoggingInterceptor는 stream 요청용 로깅 인터셉터입니다
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx := withRequestID(ss.Context())

		err := handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})

		logCompletion(ctx, "gRPC stream", info.FullMethod, time.Since(start), err)
		return err
	}
}

func logCompletion(ctx context.Context, kind, method string, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		logger.DurationMs(duration),
		zap.String("status", status.Code(err).String()),
	}
	if err != nil {
		logger.Error(ctx, kind+" failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Debug(ctx, kind+" completed", fields...)
}

// withRequestID는 metadata의 request ID를 사용하거나 새로 만들어 응답 헤더에도 돌려줍니다
func withRequestID(ctx context.Context) context.Context {
	requestID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDMetadataKey); len(ids) > 0 {
			requestID = ids[0]
		}
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}

	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDMetadataKey, requestID))
	return logger.WithFields(ctx, logger.RequestID(requestID))
}

// wrappedServerStream은 context를 교체한 ServerStream입니다
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
