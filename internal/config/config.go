package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config는 애플리케이션 전체 설정입니다
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	MongoDB       MongoDBConfig       `mapstructure:"mongodb"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Encryption    EncryptionConfig    `mapstructure:"encryption"`
	Redis         RedisConfig         `mapstructure:"redis"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig는 애플리케이션 기본 설정입니다
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig는 서버 설정입니다
type ServerConfig struct {
	HTTP HTTPServerConfig `mapstructure:"http"`
	GRPC GRPCServerConfig `mapstructure:"grpc"`
}

// HTTPServerConfig는 HTTP 서버 설정입니다
type HTTPServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS      bool          `mapstructure:"enable_cors"`
}

// GRPCServerConfig는 gRPC health 서버 설정입니다
type GRPCServerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	EnableReflection bool          `mapstructure:"enable_reflection"`
	HealthInterval   time.Duration `mapstructure:"health_interval"`
}

// MongoDBConfig는 MongoDB 설정입니다
type MongoDBConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	MaxConnecting  uint64        `mapstructure:"max_connecting"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
	// Transactions가 true이면 쓰기 작업을 트랜잭션으로 실행합니다 (replica set 필요)
	Transactions bool `mapstructure:"transactions"`
}

// AuthConfig는 세션 토큰 설정입니다
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// EncryptionConfig는 필드 암호화 설정입니다
// 값은 읽기만 하며 현재 어떤 작업에도 적용되지 않습니다
type EncryptionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Key     string `mapstructure:"key"`
}

// RedisConfig는 Redis 설정입니다
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr는 host:port 형식의 주소를 반환합니다
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RateLimitConfig는 요청 제한 설정입니다 (Redis 필요)
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// KafkaConfig는 Kafka 설정입니다
type KafkaConfig struct {
	Enabled  bool                `mapstructure:"enabled"`
	Brokers  []string            `mapstructure:"brokers"`
	Version  string              `mapstructure:"version"`
	ClientID string              `mapstructure:"client_id"`
	Topic    string              `mapstructure:"topic"`
	Producer KafkaProducerConfig `mapstructure:"producer"`
}

// KafkaProducerConfig는 Kafka Producer 설정입니다
type KafkaProducerConfig struct {
	RequiredAcks     int16         `mapstructure:"required_acks"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Compression      string        `mapstructure:"compression"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	EnableIdempotent bool          `mapstructure:"enable_idempotent"`
}

// VaultConfig는 Vault 설정입니다
type VaultConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Token     string        `mapstructure:"token"`
	Namespace string        `mapstructure:"namespace"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Paths     VaultPaths    `mapstructure:"paths"`
}

// VaultPaths는 KV v2 시크릿 경로입니다
type VaultPaths struct {
	MongoDB string `mapstructure:"mongodb"`
	Auth    string `mapstructure:"auth"`
}

// ObservabilityConfig는 관찰성 설정입니다
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig는 로깅 설정입니다
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// TracingConfig는 분산 추적 설정입니다
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// MetricsConfig는 메트릭 설정입니다
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig는 .env, 설정 파일, 환경변수 순으로 설정을 로드합니다
// 설정 파일이 없으면 기본값과 환경변수만 사용합니다
func LoadConfig(configPath string, configName string) (*Config, error) {
	// .env 파일은 선택 사항
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if configName != "" {
		v.SetConfigName(configName)
	} else {
		v.SetConfigName("config")
	}
	v.SetConfigType("yaml")

	// 환경변수 바인딩 (APP_MONGODB_URI -> mongodb.uri)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&config)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "docstore-service")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", 15*time.Second)
	v.SetDefault("server.http.write_timeout", 15*time.Second)
	v.SetDefault("server.http.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.http.enable_cors", true)

	v.SetDefault("server.grpc.enabled", true)
	v.SetDefault("server.grpc.host", "0.0.0.0")
	v.SetDefault("server.grpc.port", 9090)
	v.SetDefault("server.grpc.health_interval", 10*time.Second)

	// 기본값이 있는 키만 APP_ 환경변수로 언마샬되므로 빈 값도 등록
	v.SetDefault("mongodb.uri", "")
	v.SetDefault("mongodb.database", "")
	v.SetDefault("mongodb.transactions", false)
	v.SetDefault("mongodb.max_pool_size", 100)
	v.SetDefault("mongodb.min_pool_size", 10)
	v.SetDefault("mongodb.max_connecting", 10)
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("mongodb.timeout", 30*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", 24*time.Hour)
	v.SetDefault("auth.refresh_token_ttl", 24*time.Hour)

	v.SetDefault("encryption.enabled", false)
	v.SetDefault("encryption.key", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", "docstore-service")
	v.SetDefault("kafka.topic", "user-events")
	v.SetDefault("kafka.producer.required_acks", -1)
	v.SetDefault("kafka.producer.max_retries", 3)
	v.SetDefault("kafka.producer.timeout", 10*time.Second)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.timeout", 30*time.Second)
	v.SetDefault("vault.paths.mongodb", "secret/data/docstore/mongodb")
	v.SetDefault("vault.paths.auth", "secret/data/docstore/auth")

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.tracing.sampling_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")
}

// overrideFromEnv는 접두사 없는 기존 환경변수로 설정을 오버라이드합니다
func overrideFromEnv(config *Config) {
	env := viper.New()
	env.AutomaticEnv()

	// 기존 배포에서 사용하던 변수
	if val := env.GetString("MONGO_URI"); val != "" {
		config.MongoDB.URI = val
	}
	if val := env.GetString("DATABASE_NAME"); val != "" {
		config.MongoDB.Database = val
	}
	if env.IsSet("ENABLE_ENCRYPTION") {
		config.Encryption.Enabled = env.GetBool("ENABLE_ENCRYPTION")
	}
	if val := env.GetString("ENCRYPTION_KEY"); val != "" {
		config.Encryption.Key = val
	}
	if val := env.GetString("JWT_SECRET"); val != "" {
		config.Auth.JWTSecret = val
	}

	// Vault 설정
	if val := env.GetString("VAULT_TOKEN"); val != "" {
		config.Vault.Token = val
	}
	if val := env.GetString("VAULT_ADDR"); val != "" {
		config.Vault.Address = val
	}
	if val := env.GetString("VAULT_NAMESPACE"); val != "" {
		config.Vault.Namespace = val
	}

	// Observability 설정
	if val := env.GetString("JAEGER_ENDPOINT"); val != "" {
		config.Observability.Tracing.JaegerEndpoint = val
	}
	if val := env.GetString("LOG_LEVEL"); val != "" {
		config.Observability.Logging.Level = val
	}
}

// Validate는 설정을 검증합니다
// Vault를 사용하면 MongoDB 연결 정보와 JWT 시크릿은 ResolveSecrets 이후에 채워집니다
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.HTTP.Port <= 0 {
		return fmt.Errorf("server.http.port must be positive")
	}

	if c.Server.GRPC.Enabled && c.Server.GRPC.Port <= 0 {
		return fmt.Errorf("server.grpc.port must be positive")
	}

	if !c.Vault.Enabled {
		if c.MongoDB.URI == "" {
			return fmt.Errorf("mongodb.uri is required when vault is not used")
		}
		if c.MongoDB.Database == "" {
			return fmt.Errorf("mongodb.database is required when vault is not used")
		}
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required when vault is not used")
		}
	}

	if c.RateLimit.Enabled {
		if !c.Redis.Enabled {
			return fmt.Errorf("rate_limit requires redis.enabled")
		}
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate_limit.requests and rate_limit.window must be positive")
		}
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}

	if c.Vault.Enabled {
		if c.Vault.Address == "" {
			return fmt.Errorf("vault.address is required")
		}
		if c.Vault.Token == "" {
			return fmt.Errorf("vault.token is required")
		}
	}

	return nil
}
