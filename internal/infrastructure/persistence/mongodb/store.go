package mongodb

import (
	"context"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"github.com/YouSangSon/docstore-service/internal/pkg/tracing"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config는 MongoDB 연결 풀 설정입니다
type Config struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxConnecting  uint64
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

// ClientOptions는 0이 아닌 풀/타임아웃 값만 담은 클라이언트 옵션을 반환합니다
func (c Config) ClientOptions() *options.ClientOptions {
	opts := options.Client()
	if c.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.MaxPoolSize)
	}
	if c.MinPoolSize > 0 {
		opts.SetMinPoolSize(c.MinPoolSize)
	}
	if c.MaxConnecting > 0 {
		opts.SetMaxConnecting(c.MaxConnecting)
	}
	if c.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.ConnectTimeout)
	}
	if c.Timeout > 0 {
		opts.SetTimeout(c.Timeout)
	}
	return opts
}

// OpenWithConfig는 설정의 풀 옵션을 적용해 Open을 수행합니다
func OpenWithConfig(ctx context.Context, cfg Config) (*Store, error) {
	return Open(ctx, cfg.URI, cfg.Database, cfg.ClientOptions())
}

// Store는 검증된 연결과 대상 데이터베이스를 묶은 핸들입니다
// 생성 후에는 변경되지 않으며 여러 goroutine에서 포인터로 공유합니다
type Store struct {
	url      string
	dbName   string
	client   *mongo.Client
	database *mongo.Database
	metrics  *metrics.Metrics
}

func newStore(url, dbName string, client *mongo.Client) *Store {
	return &Store{
		url:      url,
		dbName:   dbName,
		client:   client,
		database: client.Database(dbName),
		metrics:  metrics.GetMetrics(),
	}
}

// NewStoreFromClient는 이미 연결된 클라이언트로 Store를 생성합니다
func NewStoreFromClient(client *mongo.Client, dbName string) (*Store, error) {
	if client == nil || dbName == "" {
		return nil, errors.Internal(errors.MsgInvalidConnectionTarget)
	}
	return newStore("", dbName, client), nil
}

// URL은 연결 문자열을 반환합니다
func (s *Store) URL() string {
	return s.url
}

// DBName은 대상 데이터베이스 이름을 반환합니다
func (s *Store) DBName() string {
	return s.dbName
}

// Client는 내부 mongo 클라이언트를 반환합니다
func (s *Store) Client() *mongo.Client {
	return s.client
}

// Collection은 이름으로 컬렉션을 반환합니다
func (s *Store) Collection(name string) *mongo.Collection {
	return s.database.Collection(name)
}

// HealthCheck는 Primary에 ping을 보냅니다
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.FromStore(err)
	}
	return nil
}

// Close는 MongoDB 연결을 종료합니다
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// observe는 작업 하나의 span을 시작하고, 종료 시 메트릭/로그/span 상태를 기록하는 함수를 반환합니다
func (s *Store) observe(ctx context.Context, operation, collection string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.StartDBSpan(ctx, operation, s.dbName, collection)

	return ctx, func(err error) {
		duration := time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordDBOperation(operation, collection, status, duration)
		logger.LogDBOperation(ctx, operation, collection, duration.Milliseconds(), err)
		tracing.EndSpan(span, err)
	}
}

// withSession은 세션이 주어진 경우 세션 컨텍스트로 감쌉니다
func withSession(ctx context.Context, sess mongo.Session) context.Context {
	if sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, sess)
}
