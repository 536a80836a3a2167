package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 2}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "connect", fastConfig(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUp(t *testing.T) {
	cause := errors.New("invalid connection target")
	calls := 0

	err := Do(context.Background(), "connect", fastConfig(2), func(ctx context.Context) error {
		calls++
		return cause
	})

	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.ErrorIs(t, err, cause)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad config")
	cfg := fastConfig(5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := Do(context.Background(), "connect", cfg, func(ctx context.Context) error {
		calls++
		return permanent
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, permanent, err)
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, "connect", fastConfig(3), func(ctx context.Context) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithValue(t *testing.T) {
	calls := 0
	value, err := DoWithValue(context.Background(), "open", fastConfig(3), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("timeout")
		}
		return "store", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "store", value)
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialInterval: 100 * time.Millisecond, MaxInterval: 300 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, backoff(cfg, 2))
	assert.Equal(t, 300*time.Millisecond, backoff(cfg, 3))
}
