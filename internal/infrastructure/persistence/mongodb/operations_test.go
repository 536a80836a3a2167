package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/YouSangSon/docstore-service/internal/domain/model"
	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNamespace = "app.users"

func newMockStore(mt *mtest.T) *Store {
	return newStore("", "app", mt.Client)
}

func userDocument(id string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "first_name", Value: "Ann"},
		{Key: "last_name", Value: "Lee"},
		{Key: "user_status", Value: "Active"},
		{Key: "created_at", Value: int64(1700000000)},
		{Key: "updated_at", Value: int64(1700000000)},
		{Key: "is_deleted", Value: false},
	}
}

func TestCreateOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id and timestamps", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		before := uint64(time.Now().Unix())
		user := model.NewUser("Ann", "Lee")

		result, err := CreateOne(context.Background(), store, model.CollectionUsers, user, nil)
		require.NoError(t, err)

		assert.True(t, primitive.IsValidObjectID(user.ID))
		assert.Equal(t, user.ID, result.InsertedID)
		assert.GreaterOrEqual(t, user.CreatedAt, before)
		assert.Equal(t, user.CreatedAt, user.UpdatedAt)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "insert", evt.CommandName)
	})

	mt.Run("overwrites caller id and timestamps", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		before := uint64(time.Now().Unix())
		user := model.NewUser("Ann", "Lee")
		user.ID = "caller"
		user.CreatedAt = 1
		user.UpdatedAt = 2

		_, err := CreateOne(context.Background(), store, model.CollectionUsers, user, nil)
		require.NoError(t, err)

		assert.NotEqual(t, "caller", user.ID)
		assert.True(t, primitive.IsValidObjectID(user.ID))
		assert.GreaterOrEqual(t, user.CreatedAt, before)
		assert.Equal(t, user.CreatedAt, user.UpdatedAt)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		docs, err := evt.Command.Lookup("documents").Array().Values()
		require.NoError(t, err)
		require.Len(t, docs, 1)
		sent := docs[0].Document()
		assert.Equal(t, user.ID, sent.Lookup("_id").StringValue())
		assert.NotEqual(t, int64(1), sent.Lookup("created_at").AsInt64())
		assert.NotEqual(t, int64(2), sent.Lookup("updated_at").AsInt64())
	})

	mt.Run("distinct ids", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		first := model.NewUser("Ann", "Lee")
		second := model.NewUser("Bo", "Kim")
		_, err := CreateOne(context.Background(), store, model.CollectionUsers, first, nil)
		require.NoError(t, err)
		_, err = CreateOne(context.Background(), store, model.CollectionUsers, second, nil)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	mt.Run("duplicate key becomes internal error", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		user := model.NewUser("Ann", "Lee")
		result, err := CreateOne(context.Background(), store, model.CollectionUsers, user, nil)
		require.Error(t, err)
		assert.Nil(t, result)

		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, errors.ErrCodeInternal, appErr.Code)
		assert.Contains(t, appErr.Message, "duplicate key error")
		// 실패해도 부여된 ID는 남아 있음
		assert.NotEmpty(t, user.ID)
	})
}

func TestReadOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, userDocument("u1")))

		user, err := ReadOne[model.User](context.Background(), store, model.CollectionUsers, bson.D{{Key: "_id", Value: "u1"}}, nil)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "Ann", user.FirstName)
		assert.Equal(t, model.UserStatusActive, user.UserStatus)
		assert.Equal(t, uint64(1700000000), user.CreatedAt)
	})

	mt.Run("not found", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))

		user, err := ReadOne[model.User](context.Background(), store, model.CollectionUsers, bson.D{{Key: "_id", Value: "missing"}}, nil)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	mt.Run("store failure", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized on app",
		}))

		user, err := ReadOne[bson.M](context.Background(), store, model.CollectionUsers, bson.D{}, nil)
		require.Error(t, err)
		assert.Nil(t, user)
		assert.True(t, errors.Is(err, errors.ErrCodeInternal))
		assert.Contains(t, err.Error(), "not authorized on app")
	})
}

func TestUpdateOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("document form becomes pipeline", func(mt *mtest.T) {
		store := newMockStore(mt)
		updated := userDocument("u1")
		updated[1].Value = "Anna"
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: updated}))

		before := time.Now().Unix()
		user, err := UpdateOne[model.User](
			context.Background(), store, model.CollectionUsers,
			bson.D{{Key: "_id", Value: "u1"}},
			NewUpdate(bson.D{{Key: "$set", Value: bson.D{{Key: "first_name", Value: "Anna"}}}}),
			nil,
		)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Anna", user.FirstName)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "findAndModify", evt.CommandName)

		stages, err := evt.Command.Lookup("update").Array().Values()
		require.NoError(t, err)
		require.Len(t, stages, 2)
		assert.Equal(t, "Anna", stages[0].Document().Lookup("$set", "first_name").StringValue())
		assert.GreaterOrEqual(t, stages[1].Document().Lookup("$set", "updated_at").Int64(), before)

		// 옵션이 없으면 수정 후 문서를 반환
		assert.True(t, evt.Command.Lookup("new").Boolean())
	})

	mt.Run("pipeline form appends stage", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDocument("u1")}))

		_, err := UpdateOne[model.User](
			context.Background(), store, model.CollectionUsers,
			bson.D{{Key: "_id", Value: "u1"}},
			NewUpdate([]bson.M{{"$set": bson.M{"last_name": "Park"}}, {"$unset": "gender"}}),
			nil,
		)
		require.NoError(t, err)

		evt := mt.GetStartedEvent()
		stages, err := evt.Command.Lookup("update").Array().Values()
		require.NoError(t, err)
		assert.Len(t, stages, 3)
	})

	mt.Run("invalid update never reaches store", func(mt *mtest.T) {
		store := newMockStore(mt)

		user, err := UpdateOne[model.User](
			context.Background(), store, model.CollectionUsers,
			bson.D{{Key: "_id", Value: "u1"}},
			NewUpdate("rename everything"),
			nil,
		)
		require.Error(t, err)
		assert.Nil(t, user)
		assert.Equal(t, "[INTERNAL_ERROR] Pipeline error", err.Error())
		assert.Nil(t, mt.GetStartedEvent())
	})

	mt.Run("not found", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user, err := UpdateOne[model.User](
			context.Background(), store, model.CollectionUsers,
			bson.D{{Key: "_id", Value: "missing"}},
			UpdateDocument(bson.D{{Key: "$set", Value: bson.D{{Key: "first_name", Value: "X"}}}}),
			nil,
		)
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestDeleteOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns deleted record", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDocument("u1")}))

		user, err := DeleteOne[model.User](context.Background(), store, model.CollectionUsers, bson.D{{Key: "_id", Value: "u1"}}, nil)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "u1", user.ID)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "findAndModify", evt.CommandName)
		assert.True(t, evt.Command.Lookup("remove").Boolean())
	})

	mt.Run("not found", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user, err := DeleteOne[model.User](context.Background(), store, model.CollectionUsers, bson.D{{Key: "_id", Value: "u1"}}, nil)
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}
