package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"go.uber.org/zap"
)

// GetSecret는 KV v2 시크릿의 data 필드를 가져옵니다
// KV v1 경로처럼 data 래핑이 없으면 응답 전체를 반환합니다
func (c *Client) GetSecret(ctx context.Context, path string) (map[string]interface{}, error) {
	if cached, ok := c.cache.get(path); ok {
		logger.Debug(ctx, "secret retrieved from cache", logger.Field("path", path))
		return cached, nil
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		logger.Error(ctx, "failed to read secret",
			logger.Field("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data := secret.Data
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		data = nested
	}

	c.cache.put(path, data)

	logger.Info(ctx, "secret retrieved successfully", logger.Field("path", path))
	return data, nil
}

// GetString은 시크릿의 문자열 필드 하나를 가져옵니다
func (c *Client) GetString(ctx context.Context, path, key string) (string, error) {
	data, err := c.GetSecret(ctx, path)
	if err != nil {
		return "", err
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s not found in secret at path: %s", key, path)
	}
	return value, nil
}

type cachedSecret struct {
	data      map[string]interface{}
	expiresAt time.Time
}

type secretCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cachedSecret
}

func newSecretCache(ttl time.Duration) *secretCache {
	return &secretCache{ttl: ttl, entries: make(map[string]cachedSecret)}
}

func (c *secretCache) get(path string) (map[string]interface{}, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *secretCache) put(path string, data map[string]interface{}) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = cachedSecret{data: data, expiresAt: time.Now().Add(c.ttl)}
}
