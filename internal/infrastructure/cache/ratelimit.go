package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fixed window 카운터. 첫 요청에서 만료 시간을 설정합니다
var allowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local current = tonumber(redis.call('GET', key) or "0")

if current < limit then
	redis.call('INCR', key)
	if current == 0 then
		redis.call('PEXPIRE', key, window)
	end
	return 1
end
return 0
`)

// RateLimiter는 Redis 기반 요청 제한기입니다
type RateLimiter struct {
	client redis.Scripter
	prefix string
	limit  int64
	window time.Duration
}

// NewRateLimiter는 window 동안 키마다 limit 개의 요청을 허용하는 제한기를 생성합니다
func NewRateLimiter(client redis.Scripter, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Allow는 키에 대한 요청을 허용할지 확인합니다
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	fullKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	result, err := allowScript.Run(ctx, rl.client, []string{fullKey}, rl.limit, rl.window.Milliseconds()).Int()
	if err != nil {
		logger.Error(ctx, "rate limit check failed",
			logger.Field("key", key),
			zap.Error(err),
		)
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed := result == 1
	if !allowed {
		logger.Debug(ctx, "rate limit exceeded",
			logger.Field("key", key),
			logger.Field("limit", rl.limit),
		)
	}
	return allowed, nil
}

// Limit은 window당 허용 요청 수를 반환합니다
func (rl *RateLimiter) Limit() int64 {
	return rl.limit
}
