package mongodb

import (
	"context"
	"time"

	"github.com/YouSangSon/docstore-service/internal/domain/model"
	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateOne은 레코드에 새 ID와 생성/수정 시각을 부여한 뒤 삽입합니다
// 삽입이 실패해도 레코드에 부여된 값은 그대로 남습니다
func CreateOne[M model.Record](
	ctx context.Context,
	s *Store,
	collection string,
	record M,
	sess mongo.Session,
	opts ...*options.InsertOneOptions,
) (result *mongo.InsertOneResult, err error) {
	ctx, done := s.observe(ctx, "create_one", collection)
	defer func() { done(err) }()

	now := uint64(time.Now().Unix())
	record.SetID(primitive.NewObjectID().Hex())
	record.SetCreatedAt(now)
	record.SetUpdatedAt(now)

	res, insertErr := s.Collection(collection).InsertOne(withSession(ctx, sess), record, opts...)
	if insertErr != nil {
		return nil, errors.FromStore(insertErr)
	}
	return res, nil
}

// ReadOne은 필터에 맞는 첫 문서를 T로 디코딩합니다
// 일치하는 문서가 없으면 (nil, nil)을 반환합니다
func ReadOne[T any](
	ctx context.Context,
	s *Store,
	collection string,
	filter interface{},
	sess mongo.Session,
	opts ...*options.FindOneOptions,
) (doc *T, err error) {
	ctx, done := s.observe(ctx, "read_one", collection)
	defer func() { done(err) }()

	var result T
	findErr := s.Collection(collection).FindOne(withSession(ctx, sess), filter, opts...).Decode(&result)
	if findErr != nil {
		if findErr == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, errors.FromStore(findErr)
	}
	return &result, nil
}

// UpdateOne은 필터에 맞는 첫 문서를 파이프라인 업데이트로 수정합니다
// updated_at은 항상 현재 시각으로 갱신되며, 옵션이 없으면 수정 후 문서를 반환합니다
// 일치하는 문서가 없으면 (nil, nil)을 반환합니다
func UpdateOne[T any](
	ctx context.Context,
	s *Store,
	collection string,
	filter interface{},
	update Update,
	sess mongo.Session,
	opts ...*options.FindOneAndUpdateOptions,
) (doc *T, err error) {
	ctx, done := s.observe(ctx, "update_one", collection)
	defer func() { done(err) }()

	pipeline, err := update.withUpdatedAt(time.Now().Unix())
	if err != nil {
		return nil, err
	}

	if len(opts) == 0 {
		opts = []*options.FindOneAndUpdateOptions{
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		}
	}

	var result T
	updateErr := s.Collection(collection).FindOneAndUpdate(withSession(ctx, sess), filter, pipeline, opts...).Decode(&result)
	if updateErr != nil {
		if updateErr == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, errors.FromStore(updateErr)
	}
	return &result, nil
}

// DeleteOne은 필터에 맞는 첫 문서를 삭제하고 삭제된 문서를 반환합니다
// 일치하는 문서가 없으면 (nil, nil)을 반환합니다
func DeleteOne[T any, PT interface {
	*T
	model.Record
}](
	ctx context.Context,
	s *Store,
	collection string,
	filter interface{},
	sess mongo.Session,
	opts ...*options.FindOneAndDeleteOptions,
) (doc PT, err error) {
	ctx, done := s.observe(ctx, "delete_one", collection)
	defer func() { done(err) }()

	var result T
	deleteErr := s.Collection(collection).FindOneAndDelete(withSession(ctx, sess), filter, opts...).Decode(&result)
	if deleteErr != nil {
		if deleteErr == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, errors.FromStore(deleteErr)
	}
	return PT(&result), nil
}
