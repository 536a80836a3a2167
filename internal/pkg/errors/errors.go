package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode는 에러 코드 타입입니다
type ErrorCode string

const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
)

// AppError는 애플리케이션 에러입니다
// 드라이버 에러는 문자열로만 보관하며 원본 에러 타입은 외부로 노출하지 않습니다
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`
}

// Error는 error 인터페이스를 구현합니다
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is는 같은 코드의 AppError와 일치하는지 확인합니다 (errors.Is 지원)
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetails는 상세 정보를 추가합니다
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New는 새로운 AppError를 생성합니다
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: getHTTPStatus(code),
	}
}

// Internal은 내부 에러를 생성합니다
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// Internalf는 포맷팅된 메시지로 내부 에러를 생성합니다
func Internalf(format string, args ...interface{}) *AppError {
	return New(ErrCodeInternal, fmt.Sprintf(format, args...))
}

// Unauthorized는 인증 실패 에러를 생성합니다
func Unauthorized() *AppError {
	return New(ErrCodeUnauthorized, "unauthorized")
}

// BadRequest는 잘못된 요청 에러를 생성합니다
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message)
}

// NotFound는 리소스 없음 에러를 생성합니다
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, resource+" not found")
}

// FromStore는 저장소 에러를 내부 에러로 정규화합니다
// 이미 AppError인 경우 그대로 반환합니다
func FromStore(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return Internal(err.Error())
}

// Is는 에러가 특정 코드인지 확인합니다
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As는 표준 errors.As를 노출합니다
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode는 에러 코드를 반환합니다
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPStatus는 에러의 HTTP 상태 코드를 반환합니다
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func getHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// 미리 정의된 메시지들
const (
	MsgInvalidConnectionTarget = "invalid connection target"
	MsgPipelineError           = "Pipeline error"
)
