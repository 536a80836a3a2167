package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/YouSangSon/docstore-service/internal/application/usecase"
	"github.com/YouSangSon/docstore-service/internal/config"
	"github.com/YouSangSon/docstore-service/internal/infrastructure/cache"
	"github.com/YouSangSon/docstore-service/internal/infrastructure/messaging/kafka"
	"github.com/YouSangSon/docstore-service/internal/infrastructure/persistence/mongodb"
	grpcServer "github.com/YouSangSon/docstore-service/internal/interfaces/grpc/server"
	httpHandler "github.com/YouSangSon/docstore-service/internal/interfaces/http/handler"
	"github.com/YouSangSon/docstore-service/internal/interfaces/http/router"
	"github.com/YouSangSon/docstore-service/internal/pkg/auth"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"github.com/YouSangSon/docstore-service/internal/pkg/retry"
	"github.com/YouSangSon/docstore-service/internal/pkg/tracing"
	"github.com/YouSangSon/docstore-service/internal/pkg/vault"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// ============================================
	// 1. Configuration
	// ============================================
	cfg, err := config.LoadConfig("./configs", "config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// ============================================
	// 2. Logger
	// ============================================
	if err := logger.Init(logger.Config{
		Level:       cfg.Observability.Logging.Level,
		Environment: cfg.App.Environment,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "starting docstore service",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("go_version", runtime.Version()),
	)

	// ============================================
	// 3. Metrics & Tracing
	// ============================================
	m := metrics.Init("docstore_service")

	tracingShutdown, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		JaegerEndpoint: cfg.Observability.Tracing.JaegerEndpoint,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
		Enabled:        cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "failed to shutdown tracing", zap.Error(err))
		}
	}()

	// ============================================
	// 4. Vault secrets (optional)
	// ============================================
	var vaultClient *vault.Client
	if cfg.Vault.Enabled {
		vaultClient, err = retry.DoWithValue(ctx, "vault connect", retry.DefaultConfig(),
			func(ctx context.Context) (*vault.Client, error) {
				return vault.NewClient(ctx, &vault.Config{
					Address:   cfg.Vault.Address,
					Token:     cfg.Vault.Token,
					Namespace: cfg.Vault.Namespace,
					Timeout:   cfg.Vault.Timeout,
				})
			})
		if err != nil {
			logger.Fatal(ctx, "failed to initialize vault client", zap.Error(err))
		}

		if err := cfg.ResolveSecrets(ctx, vaultClient); err != nil {
			logger.Fatal(ctx, "failed to resolve secrets from vault", zap.Error(err))
		}
		logger.Info(ctx, "secrets resolved from vault")
	}

	if cfg.Encryption.Enabled {
		logger.Warn(ctx, "encryption is enabled in configuration but field encryption is not applied")
	}

	// ============================================
	// 5. MongoDB
	// ============================================
	store, err := retry.DoWithValue(ctx, "mongodb connect", retry.DefaultConfig(),
		func(ctx context.Context) (*mongodb.Store, error) {
			connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoDB.ConnectTimeout+5*time.Second)
			defer cancel()
			return mongodb.OpenWithConfig(connectCtx, mongodb.Config{
				URI:            cfg.MongoDB.URI,
				Database:       cfg.MongoDB.Database,
				MaxPoolSize:    cfg.MongoDB.MaxPoolSize,
				MinPoolSize:    cfg.MongoDB.MinPoolSize,
				MaxConnecting:  cfg.MongoDB.MaxConnecting,
				ConnectTimeout: cfg.MongoDB.ConnectTimeout,
				Timeout:        cfg.MongoDB.Timeout,
			})
		})
	if err != nil {
		logger.Fatal(ctx, "failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error(ctx, "failed to close mongodb connection", zap.Error(err))
		}
	}()

	dependencies := map[string]httpHandler.Checker{}
	if vaultClient != nil {
		dependencies["vault"] = vaultClient
	}

	// ============================================
	// 6. Redis rate limiter (optional)
	// ============================================
	var limiter *cache.RateLimiter
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewClient(ctx, cache.Config{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Fatal(ctx, "failed to initialize redis", zap.Error(err))
		}
		defer redisClient.Close()

		dependencies["redis"] = redisChecker(redisClient)
		if cfg.RateLimit.Enabled {
			limiter = cache.NewRateLimiter(redisClient, "docstore:ratelimit", cfg.RateLimit.Requests, cfg.RateLimit.Window)
			logger.Info(ctx, "rate limiting enabled",
				zap.Int("requests", cfg.RateLimit.Requests),
				zap.Duration("window", cfg.RateLimit.Window),
			)
		}
	}

	// ============================================
	// 7. Kafka change events (optional)
	// ============================================
	var publisher interface {
		usecase.EventPublisher
		Close() error
	} = kafka.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(&kafka.ProducerConfig{
			Brokers:          cfg.Kafka.Brokers,
			ClientID:         cfg.Kafka.ClientID,
			Version:          cfg.Kafka.Version,
			Topic:            cfg.Kafka.Topic,
			RequiredAcks:     sarama.RequiredAcks(cfg.Kafka.Producer.RequiredAcks),
			Compression:      cfg.Kafka.Producer.Compression,
			Timeout:          cfg.Kafka.Producer.Timeout,
			MaxRetries:       cfg.Kafka.Producer.MaxRetries,
			RetryBackoff:     cfg.Kafka.Producer.RetryBackoff,
			EnableIdempotent: cfg.Kafka.Producer.EnableIdempotent,
		})
		if err != nil {
			logger.Warn(ctx, "failed to initialize kafka producer, events disabled", zap.Error(err))
		} else {
			publisher = producer
		}
	}
	defer publisher.Close()

	// ============================================
	// 8. Use cases & HTTP
	// ============================================
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, auth.WithTTL(cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL))
	if err != nil {
		logger.Fatal(ctx, "failed to initialize token issuer", zap.Error(err))
	}

	userUC := usecase.NewUserUseCase(store, issuer, publisher, cfg.MongoDB.Transactions)
	if err := userUC.EnsureIndexes(ctx); err != nil {
		logger.Warn(ctx, "failed to ensure user indexes", zap.Error(err))
	}

	r := router.SetupRouter(
		httpHandler.NewUserHandler(userUC),
		httpHandler.NewHealthHandler(cfg.App.Version, store, dependencies),
		issuer,
		m,
		router.Options{
			Environment:   cfg.App.Environment,
			EnableCORS:    cfg.Server.HTTP.EnableCORS,
			EnableTracing: cfg.Observability.Tracing.Enabled,
			EnableMetrics: cfg.Observability.Metrics.Enabled,
			MetricsPath:   cfg.Observability.Metrics.Path,
			RateLimiter:   limiter,
		},
	)

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port),
		Handler:        r,
		ReadTimeout:    cfg.Server.HTTP.ReadTimeout,
		WriteTimeout:   cfg.Server.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
		IdleTimeout:    120 * time.Second,
	}

	go func() {
		logger.Info(ctx, "starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "failed to start HTTP server", zap.Error(err))
		}
	}()

	// ============================================
	// 9. gRPC health (optional)
	// ============================================
	reporterCtx, stopReporter := context.WithCancel(ctx)
	defer stopReporter()

	var grpcSrv *grpcServer.Server
	var reporterDone sync.WaitGroup
	if cfg.Server.GRPC.Enabled {
		grpcSrv = grpcServer.New(grpcServer.Config{
			Host:             cfg.Server.GRPC.Host,
			Port:             cfg.Server.GRPC.Port,
			EnableReflection: cfg.Server.GRPC.EnableReflection,
			EnableTracing:    cfg.Observability.Tracing.Enabled,
			HealthInterval:   cfg.Server.GRPC.HealthInterval,
		}, store, m)

		reporterDone.Add(1)
		go func() {
			defer reporterDone.Done()
			grpcSrv.RunHealthReporter(reporterCtx)
		}()

		go func() {
			if err := grpcSrv.ListenAndServe(); err != nil {
				logger.Fatal(ctx, "failed to start gRPC server", zap.Error(err))
			}
		}()
	}

	// ============================================
	// 10. Graceful shutdown
	// ============================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer cancel()

	stopReporter()
	reporterDone.Wait()
	if grpcSrv != nil {
		grpcSrv.Shutdown(shutdownCtx)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", zap.Error(err))
	}

	logger.Info(ctx, "server exited")
}

func redisChecker(client *redis.Client) httpHandler.CheckerFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
