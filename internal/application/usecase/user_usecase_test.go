package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/YouSangSon/docstore-service/internal/application/dto"
	"github.com/YouSangSon/docstore-service/internal/domain/model"
	"github.com/YouSangSon/docstore-service/internal/infrastructure/persistence/mongodb"
	"github.com/YouSangSon/docstore-service/internal/pkg/auth"
	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNamespace = "app.users"

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishUserEvent(ctx context.Context, event *model.UserEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func eventOfType(eventType model.EventType) interface{} {
	return mock.MatchedBy(func(e *model.UserEvent) bool {
		return e.EventType == eventType
	})
}

type fixture struct {
	uc        *UserUseCase
	issuer    *auth.Issuer
	publisher *mockPublisher
}

func newFixture(t *testing.T, mt *mtest.T) *fixture {
	t.Helper()

	store, err := mongodb.NewStoreFromClient(mt.Client, "app")
	require.NoError(t, err)
	issuer, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)

	publisher := &mockPublisher{}
	return &fixture{
		uc:        NewUserUseCase(store, issuer, publisher, false),
		issuer:    issuer,
		publisher: publisher,
	}
}

func userDocument(id, status string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "first_name", Value: "Ann"},
		{Key: "last_name", Value: "Lee"},
		{Key: "user_status", Value: status},
		{Key: "created_at", Value: int64(1700000000)},
		{Key: "updated_at", Value: int64(1700000000)},
		{Key: "is_deleted", Value: false},
	}
}

func TestCreateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("issues tokens and publishes event", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		f.publisher.On("PublishUserEvent", mock.Anything, eventOfType(model.EventUserCreated)).Return(nil)

		user, pair, err := f.uc.CreateUser(context.Background(), &dto.CreateUserRequest{
			FirstName: " Ann ",
			LastName:  "Lee",
			Gender:    model.GenderFemale,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "Ann", user.FirstName)
		assert.Equal(t, model.UserStatusActive, user.UserStatus)
		assert.Equal(t, model.OAuthNone, user.OAuthType)

		access, err := f.issuer.Decode(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, access.UserID)
		assert.Equal(t, auth.TokenKindAccess, access.Kind)

		refresh, err := f.issuer.Decode(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenKindRefresh, refresh.Kind)

		f.publisher.AssertExpectations(t)
	})

	mt.Run("publish failure does not fail the write", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		f.publisher.On("PublishUserEvent", mock.Anything, mock.Anything).Return(fmt.Errorf("broker down"))

		user, pair, err := f.uc.CreateUser(context.Background(), &dto.CreateUserRequest{FirstName: "Ann", LastName: "Lee"})
		require.NoError(t, err)
		assert.NotNil(t, user)
		assert.NotNil(t, pair)
	})

	mt.Run("rejects invalid input", func(mt *mtest.T) {
		f := newFixture(t, mt)

		for _, req := range []*dto.CreateUserRequest{
			{FirstName: "", LastName: "Lee"},
			{FirstName: "Ann", LastName: "  "},
			{FirstName: "Ann", LastName: "Lee", Gender: "Unknown"},
			{FirstName: "Ann", LastName: "Lee", OAuthType: "Github"},
		} {
			_, _, err := f.uc.CreateUser(context.Background(), req)
			assert.True(t, errors.Is(err, errors.ErrCodeBadRequest), "%+v", req)
		}

		assert.Nil(t, mt.GetStartedEvent())
		f.publisher.AssertNotCalled(t, "PublishUserEvent", mock.Anything, mock.Anything)
	})

	mt.Run("store failure", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		_, _, err := f.uc.CreateUser(context.Background(), &dto.CreateUserRequest{FirstName: "Ann", LastName: "Lee"})
		assert.True(t, errors.Is(err, errors.ErrCodeInternal))
		f.publisher.AssertNotCalled(t, "PublishUserEvent", mock.Anything, mock.Anything)
	})
}

func TestGetUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, userDocument("u1", "Active")))

		user, err := f.uc.GetUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		filter := evt.Command.Lookup("filter").Document()
		assert.Equal(t, "u1", filter.Lookup("_id").StringValue())
		assert.False(t, filter.Lookup("is_deleted").Boolean())
	})

	mt.Run("missing", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))

		user, err := f.uc.GetUser(context.Background(), "nope")
		assert.Nil(t, user)
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	})
}

func TestListUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes page", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, bson.D{
			{Key: "data", Value: bson.A{userDocument("u1", "Active"), userDocument("u2", "Inactive")}},
			{Key: "metadata", Value: bson.D{
				{Key: "current_page", Value: int32(2)},
				{Key: "page_size", Value: int32(2)},
				{Key: "total_records", Value: int32(5)},
				{Key: "has_next_page", Value: true},
			}},
		}))

		page, err := f.uc.ListUsers(context.Background(), 2, 2)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "u2", page.Data[1].ID)
		assert.Equal(t, dto.PageMetadata{CurrentPage: 2, PageSize: 2, TotalRecords: 5, HasNextPage: true}, page.Metadata)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "aggregate", evt.CommandName)
		stages, err := evt.Command.Lookup("pipeline").Array().Values()
		require.NoError(t, err)
		require.Len(t, stages, 5)
		assert.Equal(t, int64(-1), stages[1].Document().Lookup("$sort", "created_at").AsInt64())
	})

	mt.Run("empty result keeps normalized paging", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))

		page, err := f.uc.ListUsers(context.Background(), 0, 500)
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.NotNil(t, page.Data)
		assert.Equal(t, mongodb.DefaultPage, page.Metadata.CurrentPage)
		assert.Equal(t, mongodb.DefaultPageSize, page.Metadata.PageSize)
	})
}

func TestUserStats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes summary", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, bson.D{
			{Key: "total", Value: int32(3)},
			{Key: "active", Value: int32(2)},
			{Key: "inactive", Value: int32(1)},
		}))

		stats, err := f.uc.UserStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &dto.UserStats{Total: 3, Active: 2, Inactive: 1}, stats)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		stages, err := evt.Command.Lookup("pipeline").Array().Values()
		require.NoError(t, err)
		assert.Len(t, stages, 3)
	})
}

func TestUpdateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("updates given fields", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDocument("u1", "Inactive")}))
		f.publisher.On("PublishUserEvent", mock.Anything, eventOfType(model.EventUserUpdated)).Return(nil)

		status := model.UserStatusInactive
		user, err := f.uc.UpdateUser(context.Background(), "u1", &dto.UpdateUserRequest{UserStatus: &status})
		require.NoError(t, err)
		assert.Equal(t, model.UserStatusInactive, user.UserStatus)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		stages, err := evt.Command.Lookup("update").Array().Values()
		require.NoError(t, err)
		require.Len(t, stages, 2)
		set := stages[0].Document().Lookup("$set").Document()
		assert.Equal(t, "Inactive", set.Lookup("user_status", "$literal").StringValue())
		_, err = set.LookupErr("first_name")
		assert.Error(t, err)

		f.publisher.AssertExpectations(t)
	})

	mt.Run("dollar-prefixed values stay literal", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDocument("u1", "Active")}))
		f.publisher.On("PublishUserEvent", mock.Anything, eventOfType(model.EventUserUpdated)).Return(nil)

		remove, field := "$$REMOVE", "$is_deleted"
		_, err := f.uc.UpdateUser(context.Background(), "u1", &dto.UpdateUserRequest{FirstName: &remove, LastName: &field})
		require.NoError(t, err)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		stages, err := evt.Command.Lookup("update").Array().Values()
		require.NoError(t, err)
		set := stages[0].Document().Lookup("$set").Document()

		firstName := set.Lookup("first_name").Document()
		assert.Equal(t, "$$REMOVE", firstName.Lookup("$literal").StringValue())
		lastName := set.Lookup("last_name").Document()
		assert.Equal(t, "$is_deleted", lastName.Lookup("$literal").StringValue())
	})

	mt.Run("rejects empty and invalid updates", func(mt *mtest.T) {
		f := newFixture(t, mt)

		blank := " "
		banned := model.UserStatus("Banned")
		for _, req := range []*dto.UpdateUserRequest{
			{},
			{FirstName: &blank},
			{UserStatus: &banned},
		} {
			_, err := f.uc.UpdateUser(context.Background(), "u1", req)
			assert.True(t, errors.Is(err, errors.ErrCodeBadRequest))
		}
		assert.Nil(t, mt.GetStartedEvent())
	})

	mt.Run("missing", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		name := "Anna"
		user, err := f.uc.UpdateUser(context.Background(), "u1", &dto.UpdateUserRequest{FirstName: &name})
		assert.Nil(t, user)
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
		f.publisher.AssertNotCalled(t, "PublishUserEvent", mock.Anything, mock.Anything)
	})
}

func TestDeleteUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("marks deleted and publishes snapshot", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDocument("u1", "Active")}))
		f.publisher.On("PublishUserEvent", mock.Anything, mock.MatchedBy(func(e *model.UserEvent) bool {
			return e.EventType == model.EventUserDeleted && e.UserID == "u1"
		})).Return(nil)

		require.NoError(t, f.uc.DeleteUser(context.Background(), "u1"))
		f.publisher.AssertExpectations(t)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "findAndModify", evt.CommandName)
		assert.False(t, evt.Command.Lookup("query", "is_deleted").Boolean())
		_, err := evt.Command.LookupErr("remove")
		assert.Error(t, err)

		stages, err := evt.Command.Lookup("update").Array().Values()
		require.NoError(t, err)
		require.Len(t, stages, 2)
		assert.True(t, stages[0].Document().Lookup("$set", "is_deleted").Boolean())
	})

	mt.Run("missing", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := f.uc.DeleteUser(context.Background(), "u1")
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	})
}

func TestRefreshTokens(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("refresh token issues new pair", func(mt *mtest.T) {
		f := newFixture(t, mt)
		_, refresh, err := f.issuer.CreateFreshPair("u1")
		require.NoError(t, err)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, userDocument("u1", "Active")))

		pair, err := f.uc.RefreshTokens(context.Background(), refresh)
		require.NoError(t, err)

		token, err := f.issuer.Decode(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", token.UserID)
	})

	mt.Run("access token is rejected", func(mt *mtest.T) {
		f := newFixture(t, mt)
		access, _, err := f.issuer.CreateFreshPair("u1")
		require.NoError(t, err)

		_, err = f.uc.RefreshTokens(context.Background(), access)
		assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
		assert.Nil(t, mt.GetStartedEvent())
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		f := newFixture(t, mt)
		_, refresh, err := f.issuer.CreateFreshPair("ghost")
		require.NoError(t, err)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))

		_, err = f.uc.RefreshTokens(context.Background(), refresh)
		assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
	})

	mt.Run("malformed token", func(mt *mtest.T) {
		f := newFixture(t, mt)

		_, err := f.uc.RefreshTokens(context.Background(), "garbage")
		assert.True(t, errors.Is(err, errors.ErrCodeBadRequest))
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("users indexes", func(mt *mtest.T) {
		f := newFixture(t, mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(t, f.uc.EnsureIndexes(context.Background()))

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "createIndexes", evt.CommandName)
		assert.Equal(t, "users", evt.Command.Lookup("createIndexes").StringValue())
	})
}
