package mongodb

import (
	"context"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// StartSession은 새 클라이언트 세션을 시작합니다
// 호출자가 EndSession으로 세션을 종료해야 합니다
func (s *Store) StartSession() (mongo.Session, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, errors.FromStore(err)
	}
	return sess, nil
}

// WithTransaction은 트랜잭션 내에서 함수를 실행합니다
// fn에 전달되는 세션을 각 작업의 sess 인자로 넘겨야 같은 트랜잭션에 참여합니다
// MongoDB 트랜잭션은 replica set 또는 sharded cluster에서만 작동합니다
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, sess mongo.Session) error) error {
	start := time.Now()

	session, err := s.client.StartSession()
	if err != nil {
		logger.Error(ctx, "failed to start session", zap.Error(err))
		return errors.FromStore(err)
	}
	defer session.EndSession(ctx)

	logger.Debug(ctx, "starting transaction")

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx, sessCtx)
	})
	if err != nil {
		logger.Error(ctx, "transaction failed",
			logger.Duration(time.Since(start)),
			zap.Error(err),
		)
		return errors.FromStore(err)
	}

	logger.Debug(ctx, "transaction committed", logger.Duration(time.Since(start)))
	return nil
}
