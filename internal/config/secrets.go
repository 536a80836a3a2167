package config

import (
	"context"
	"fmt"
)

// SecretSource는 경로별 키/값 시크릿을 제공합니다 (vault.Client)
type SecretSource interface {
	GetSecret(ctx context.Context, path string) (map[string]interface{}, error)
}

// ResolveSecrets는 Vault에서 MongoDB 연결 정보와 JWT 시크릿을 읽어 설정에 채웁니다
// Vault 값이 비어 있으면 기존 설정 값을 유지합니다
func (c *Config) ResolveSecrets(ctx context.Context, source SecretSource) error {
	if !c.Vault.Enabled {
		return nil
	}

	if c.Vault.Paths.MongoDB != "" {
		data, err := source.GetSecret(ctx, c.Vault.Paths.MongoDB)
		if err != nil {
			return fmt.Errorf("failed to resolve mongodb secret: %w", err)
		}
		assignString(data, "uri", &c.MongoDB.URI)
		assignString(data, "database", &c.MongoDB.Database)
	}

	if c.Vault.Paths.Auth != "" {
		data, err := source.GetSecret(ctx, c.Vault.Paths.Auth)
		if err != nil {
			return fmt.Errorf("failed to resolve auth secret: %w", err)
		}
		assignString(data, "jwt_secret", &c.Auth.JWTSecret)
		assignString(data, "encryption_key", &c.Encryption.Key)
	}

	if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb uri and database must be provided by config or vault")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be provided by config or vault")
	}

	return nil
}

func assignString(data map[string]interface{}, key string, target *string) {
	if value, ok := data[key].(string); ok && value != "" {
		*target = value
	}
}
