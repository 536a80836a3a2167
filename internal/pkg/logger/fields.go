package logger

import (
	"time"

	"go.uber.org/zap"
)

// 일관된 로그 필드를 위한 헬퍼 함수들

// RequestID는 요청 ID 필드를 반환합니다
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// TraceID는 trace ID 필드를 반환합니다
func TraceID(id string) zap.Field {
	return zap.String("trace_id", id)
}

// SpanID는 span ID 필드를 반환합니다
func SpanID(id string) zap.Field {
	return zap.String("span_id", id)
}

// UserID는 사용자 ID 필드를 반환합니다
func UserID(id string) zap.Field {
	return zap.String("user_id", id)
}

// Collection은 컬렉션명 필드를 반환합니다
func Collection(name string) zap.Field {
	return zap.String("collection", name)
}

// Operation은 작업명 필드를 반환합니다
func Operation(op string) zap.Field {
	return zap.String("operation", op)
}

// Duration은 작업 시간 필드를 반환합니다
func Duration(d time.Duration) zap.Field {
	return zap.Duration("duration", d)
}

// DurationMs는 작업 시간을 밀리초로 반환합니다
func DurationMs(d time.Duration) zap.Field {
	return zap.Float64("duration_ms", float64(d.Milliseconds()))
}

// HTTPMethod는 HTTP 메서드 필드를 반환합니다
func HTTPMethod(method string) zap.Field {
	return zap.String("http_method", method)
}

// HTTPPath는 HTTP 경로 필드를 반환합니다
func HTTPPath(path string) zap.Field {
	return zap.String("http_path", path)
}

// HTTPStatus는 HTTP 상태 코드 필드를 반환합니다
func HTTPStatus(status int) zap.Field {
	return zap.Int("http_status", status)
}

// RemoteAddr는 원격 주소 필드를 반환합니다
func RemoteAddr(addr string) zap.Field {
	return zap.String("remote_addr", addr)
}

// ErrorCode는 에러 코드 필드를 반환합니다
func ErrorCode(code string) zap.Field {
	return zap.String("error_code", code)
}

// Count는 카운트 필드를 반환합니다
func Count(n int) zap.Field {
	return zap.Int("count", n)
}

// DatabaseName은 데이터베이스명 필드를 반환합니다
func DatabaseName(name string) zap.Field {
	return zap.String("db_name", name)
}

// Page는 페이지 번호 필드를 반환합니다
func Page(page, pageSize int) zap.Field {
	return zap.Dict("page", zap.Int("number", page), zap.Int("size", pageSize))
}

// Field는 임의의 키/값 필드를 반환합니다
func Field(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}
