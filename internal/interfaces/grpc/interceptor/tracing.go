package interceptor

import (
	"context"
	"strings"

	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/YouSangSon/docstore-service/internal/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// UnaryTracingInterceptor는 unary 요청마다 server span을 시작합니다
func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, span := tracing.StartSpan(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.method", info.FullMethod),
			attribute.String("rpc.service", serviceName(info.FullMethod)),
		)

		ctx = logger.WithFields(ctx,
			logger.TraceID(tracing.GetTraceID(ctx)),
			logger.SpanID(tracing.GetSpanID(ctx)),
		)

		resp, err := handler(ctx, req)

		st := status.Convert(err)
		span.SetAttributes(attribute.String("rpc.grpc.status_code", st.Code().String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, st.Message())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return resp, err
	}
}

// serviceName은 "/grpc.health.v1.Health/Check"에서 "grpc.health.v1.Health"를 꺼냅니다
func serviceName(fullMethod string) string {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		return fullMethod[:i]
	}
	return fullMethod
}
