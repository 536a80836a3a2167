package interceptor

import (
	"context"
	"runtime/debug"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryRecoveryInterceptor는 unary 핸들러의 패닉을 Internal 상태로 바꿉니다
func UnaryRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "panic recovered in gRPC unary handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor는 stream 핸들러의 패닉을 Internal 상태로 바꿉니다
func StreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ss.Context(), "panic recovered in gRPC stream handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(srv, ss)
	}
}

// UnaryErrorHandlerInterceptor는 AppError를 gRPC 상태로 변환합니다
func UnaryErrorHandlerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)

		var appErr *errors.AppError
		if err != nil && errors.As(err, &appErr) {
			return resp, status.Error(mapErrorCodeToGRPC(appErr.Code), appErr.Message)
		}
		return resp, err
	}
}

func mapErrorCodeToGRPC(code errors.ErrorCode) codes.Code {
	switch code {
	case errors.ErrCodeBadRequest:
		return codes.InvalidArgument
	case errors.ErrCodeUnauthorized:
		return codes.Unauthenticated
	case errors.ErrCodeNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
