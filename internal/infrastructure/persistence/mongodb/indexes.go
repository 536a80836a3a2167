package mongodb

import (
	"context"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes는 컬렉션에 인덱스를 생성합니다
// 같은 정의의 인덱스가 이미 있으면 서버가 무시하므로 기동 시마다 호출해도 됩니다
func EnsureIndexes(ctx context.Context, s *Store, collection string, models []mongo.IndexModel) (names []string, err error) {
	ctx, done := s.observe(ctx, "create_indexes", collection)
	defer func() { done(err) }()

	if len(models) == 0 {
		return nil, nil
	}

	names, createErr := s.Collection(collection).Indexes().CreateMany(ctx, models)
	if createErr != nil {
		return nil, errors.FromStore(createErr)
	}

	logger.Info(ctx, "indexes ensured",
		logger.Collection(collection),
		logger.Field("indexes", names),
	)
	return names, nil
}
