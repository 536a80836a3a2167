package mongodb

import (
	"context"
	"slices"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// URL은 연결 문자열이 지정된 상태를 나타내는 표식입니다
type URL string

// NoURL은 연결 문자열이 아직 지정되지 않은 상태입니다
type NoURL struct{}

// DBName은 데이터베이스 이름이 지정된 상태를 나타내는 표식입니다
type DBName string

// NoDBName은 데이터베이스 이름이 아직 지정되지 않은 상태입니다
type NoDBName struct{}

type urlState interface {
	URL | NoURL
}

type dbNameState interface {
	DBName | NoDBName
}

// ClientBuilder는 Store를 만들기 위한 2단계 빌더입니다
// 타입 파라미터가 URL/DBName 지정 여부를 추적하므로
// 두 값이 모두 지정되지 않은 빌더는 Connect/Build에 전달할 수 없습니다
type ClientBuilder[U urlState, D dbNameState] struct {
	url     U
	dbName  D
	options []*options.ClientOptions
	client  *mongo.Client
}

// NewClientBuilder는 비어 있는 빌더를 생성합니다
func NewClientBuilder() ClientBuilder[NoURL, NoDBName] {
	return ClientBuilder[NoURL, NoDBName]{}
}

// WithURL은 연결 문자열을 지정합니다
func (b ClientBuilder[U, D]) WithURL(url URL) ClientBuilder[URL, D] {
	return ClientBuilder[URL, D]{
		url:     url,
		dbName:  b.dbName,
		options: b.options,
	}
}

// WithDBName은 대상 데이터베이스 이름을 지정합니다
func (b ClientBuilder[U, D]) WithDBName(dbName DBName) ClientBuilder[U, DBName] {
	return ClientBuilder[U, DBName]{
		url:     b.url,
		dbName:  dbName,
		options: b.options,
	}
}

// WithOptions는 추가 클라이언트 옵션(풀 크기, 타임아웃 등)을 지정합니다
// 연결 문자열보다 나중에 적용되므로 같은 항목은 이 값이 우선합니다
func (b ClientBuilder[U, D]) WithOptions(opts ...*options.ClientOptions) ClientBuilder[U, D] {
	b.options = append(slices.Clone(b.options), opts...)
	b.client = nil
	return b
}

// Connect는 MongoDB에 연결하고 Primary에 ping을 보내 연결을 확인합니다
// 실패 원인은 연결 문자열 노출을 막기 위해 "invalid connection target"으로만 반환합니다
func Connect(ctx context.Context, b ClientBuilder[URL, DBName]) (ClientBuilder[URL, DBName], error) {
	if b.url == "" || b.dbName == "" {
		return b, errors.Internal(errors.MsgInvalidConnectionTarget)
	}

	clientOptions := options.Client().
		ApplyURI(string(b.url)).
		SetReadPreference(readpref.Primary())

	client, err := mongo.Connect(ctx, append([]*options.ClientOptions{clientOptions}, b.options...)...)
	if err != nil {
		logger.Error(ctx, "failed to connect to MongoDB", logger.DatabaseName(string(b.dbName)))
		return b, errors.Internal(errors.MsgInvalidConnectionTarget)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		logger.Error(ctx, "failed to ping MongoDB", logger.DatabaseName(string(b.dbName)))
		return b, errors.Internal(errors.MsgInvalidConnectionTarget)
	}

	logger.Info(ctx, "connected to MongoDB", logger.DatabaseName(string(b.dbName)))

	b.client = client
	return b, nil
}

// Build는 연결된 빌더를 소비하여 Store를 생성합니다
func Build(b ClientBuilder[URL, DBName]) (*Store, error) {
	if b.client == nil {
		return nil, errors.Internal("client builder is not connected")
	}
	return newStore(string(b.url), string(b.dbName), b.client), nil
}

// Open은 Connect와 Build를 한 번에 수행합니다
func Open(ctx context.Context, url, dbName string, opts ...*options.ClientOptions) (*Store, error) {
	b, err := Connect(ctx, NewClientBuilder().
		WithURL(URL(url)).
		WithDBName(DBName(dbName)).
		WithOptions(opts...))
	if err != nil {
		return nil, err
	}
	return Build(b)
}
