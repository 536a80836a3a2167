package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// Config는 Vault 클라이언트 설정입니다
type Config struct {
	Address   string
	Token     string
	Namespace string
	Timeout   time.Duration
	// CacheTTL이 0보다 크면 읽은 시크릿을 그 시간 동안 재사용합니다
	CacheTTL time.Duration
}

// Validate는 설정을 검증합니다
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("vault address is required")
	}
	if c.Token == "" {
		return fmt.Errorf("vault token is required")
	}
	return nil
}

// Client는 Vault 클라이언트 래퍼입니다 (token 인증, KV v2 읽기)
type Client struct {
	client *vault.Client
	config *Config
	cache  *secretCache
}

// NewClient는 새로운 Vault 클라이언트를 생성하고 토큰을 검증합니다
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vault config: %w", err)
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	if cfg.Timeout > 0 {
		vaultConfig.Timeout = cfg.Timeout
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	client.SetToken(cfg.Token)
	if _, err := client.Auth().Token().LookupSelfWithContext(ctx); err != nil {
		logger.Error(ctx, "vault token lookup failed", zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	logger.Info(ctx, "vault client initialized successfully",
		logger.Field("address", cfg.Address),
	)

	return &Client{
		client: client,
		config: cfg,
		cache:  newSecretCache(cfg.CacheTTL),
	}, nil
}

// HealthCheck는 Vault 연결 상태를 확인합니다
func (c *Client) HealthCheck(ctx context.Context) error {
	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}
