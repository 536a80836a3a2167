package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrMaxRetriesExceeded는 최대 재시도 횟수를 초과했을 때 발생합니다
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// Config는 재시도 설정입니다
type Config struct {
	MaxAttempts     int           // 최대 시도 횟수
	InitialInterval time.Duration // 초기 대기 시간
	MaxInterval     time.Duration // 최대 대기 시간
	Multiplier      float64       // 대기 시간 증가 배율
	// RetryIf가 nil이면 모든 에러를 재시도합니다
	RetryIf func(err error) bool
}

// DefaultConfig는 기동 시 외부 의존성 연결에 쓰는 기본 설정입니다
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
	}
}

// Do는 fn이 성공하거나 시도 횟수를 모두 쓸 때까지 재시도합니다
// 마지막 에러는 ErrMaxRetriesExceeded와 함께 반환됩니다
func Do(ctx context.Context, name string, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if cfg.RetryIf != nil && !cfg.RetryIf(lastErr) {
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		wait := backoff(cfg, attempt)
		logger.Warn(ctx, "retrying after failure",
			logger.Operation(name),
			logger.Field("attempt", attempt),
			logger.Duration(wait),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return errors.Join(ErrMaxRetriesExceeded, lastErr)
}

// DoWithValue는 값을 반환하는 함수를 재시도합니다
func DoWithValue[T any](ctx context.Context, name string, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, name, cfg, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

// backoff는 exponential backoff 대기 시간을 계산합니다
func backoff(cfg Config, attempt int) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	wait := float64(cfg.InitialInterval) * math.Pow(multiplier, float64(attempt-1))
	if cfg.MaxInterval > 0 && wait > float64(cfg.MaxInterval) {
		wait = float64(cfg.MaxInterval)
	}
	return time.Duration(wait)
}
