package usecase

import (
	"context"
	"strings"

	"github.com/YouSangSon/docstore-service/internal/application/dto"
	"github.com/YouSangSon/docstore-service/internal/domain/model"
	"github.com/YouSangSon/docstore-service/internal/infrastructure/persistence/mongodb"
	"github.com/YouSangSon/docstore-service/internal/pkg/auth"
	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/YouSangSon/docstore-service/internal/pkg/tracing"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EventPublisher는 사용자 변경 이벤트 발행기입니다
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, event *model.UserEvent) error
}

// UserUseCase는 사용자 관련 유즈케이스입니다
type UserUseCase struct {
	store        *mongodb.Store
	issuer       *auth.Issuer
	publisher    EventPublisher
	transactions bool
}

// NewUserUseCase는 새로운 UserUseCase를 생성합니다
// transactions가 true이면 쓰기 작업을 트랜잭션 안에서 실행합니다 (replica set 필요)
func NewUserUseCase(
	store *mongodb.Store,
	issuer *auth.Issuer,
	publisher EventPublisher,
	transactions bool,
) *UserUseCase {
	return &UserUseCase{
		store:        store,
		issuer:       issuer,
		publisher:    publisher,
		transactions: transactions,
	}
}

// CreateUser는 사용자를 생성하고 토큰 쌍을 발급합니다
func (uc *UserUseCase) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (user *model.User, pair *auth.TokenPair, err error) {
	ctx, span := tracing.StartSpan(ctx, "UserUseCase.CreateUser")
	defer func() { tracing.EndSpan(span, err) }()

	user, err = newUserFromRequest(req)
	if err != nil {
		return nil, nil, err
	}

	err = uc.runWrite(ctx, func(ctx context.Context, sess mongo.Session) error {
		_, err := mongodb.CreateOne(ctx, uc.store, model.CollectionUsers, user, sess)
		return err
	})
	if err != nil {
		logger.Error(ctx, "failed to create user", zap.Error(err))
		return nil, nil, err
	}

	tracing.SetAttributes(ctx, attribute.String("user_id", user.ID))

	pair, err = uc.issuer.NewPair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	uc.publish(ctx, model.EventUserCreated, user)

	logger.Info(ctx, "user created", logger.UserID(user.ID))
	return user, pair, nil
}

// GetUser는 삭제되지 않은 사용자를 조회합니다
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (user *model.User, err error) {
	ctx, span := tracing.StartSpan(ctx, "UserUseCase.GetUser")
	defer func() { tracing.EndSpan(span, err) }()

	tracing.SetAttributes(ctx, attribute.String("user_id", id))

	user, err = mongodb.ReadOne[model.User](ctx, uc.store, model.CollectionUsers, activeUserFilter(id), nil)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFound("user")
	}
	return user, nil
}

// ListUsers는 삭제되지 않은 사용자를 최신순으로 페이지 단위 조회합니다
func (uc *UserUseCase) ListUsers(ctx context.Context, page, pageSize int) (result *dto.UserPage, err error) {
	ctx, span := tracing.StartSpan(ctx, "UserUseCase.ListUsers")
	defer func() { tracing.EndSpan(span, err) }()

	page, pageSize = mongodb.NormalizePaging(page, pageSize)
	logger.Debug(ctx, "listing users", logger.Page(page, pageSize))

	doc, err := mongodb.QueryRead(ctx, uc.store, mongodb.AggregateRequest{
		Collection: model.CollectionUsers,
		Pipeline: mongo.Pipeline{
			{{Key: "$match", Value: bson.D{{Key: "is_deleted", Value: false}}}},
			{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		},
		Page:       page,
		PageSize:   pageSize,
		PagingData: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	result = &dto.UserPage{}
	if err = decodeDocument(doc, result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		result.Data = []model.User{}
	}
	if result.Metadata.PageSize == 0 {
		result.Metadata.CurrentPage = page
		result.Metadata.PageSize = pageSize
	}
	return result, nil
}

// UserStats는 상태별 사용자 수를 집계합니다
func (uc *UserUseCase) UserStats(ctx context.Context) (stats *dto.UserStats, err error) {
	ctx, span := tracing.StartSpan(ctx, "UserUseCase.UserStats")
	defer func() { tracing.EndSpan(span, err) }()

	countStatus := func(status model.UserStatus) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$user_status", status}}}, 1, 0,
		}}}}}
	}

	doc, err := mongodb.QueryRead(ctx, uc.store, mongodb.AggregateRequest{
		Collection: model.CollectionUsers,
		Pipeline: mongo.Pipeline{
			{{Key: "$match", Value: bson.D{{Key: "is_deleted", Value: false}}}},
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: nil},
				{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
				{Key: "active", Value: countStatus(model.UserStatusActive)},
				{Key: "inactive", Value: countStatus(model.UserStatusInactive)},
			}}},
			{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		},
	}, nil)
	if err != nil {
		return nil, err
	}

	stats = &dto.UserStats{}
	if err = decodeDocument(doc, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// UpdateUser는 요청에 포함된 필드만 수정합니다
func (uc *UserUseCase) UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest) (user *model.User, err error) {
	ctx, span := tracing.StartSpan(ctx, "UserUseCase.UpdateUser")
	defer func() { tracing.EndSpan(span, err) }()

	tracing.SetAttributes(ctx, attribute.String("user_id", id))

	set, err := updateFields(req)
	if err != nil {
		return nil, err
	}

	err = uc.runWrite(ctx, func(ctx context.Context, sess mongo.Session) error {
		var updateErr error
		user, updateErr = mongodb.UpdateOne[model.User](ctx, uc.store, model.CollectionUsers,
			activeUserFilter(id),
			mongodb.UpdateDocument(bson.D{{Key: "$set", Value: set}}),
			sess,
		)
		return updateErr
	})
	if err != nil {
		logger.Error(ctx, "failed to update user", logger.UserID(id), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFound("user")
	}

	uc.publish(ctx, model.EventUserUpdated, user)
	return user, nil
}

// DeleteUser는 사용자를 soft delete 합니다
// 이미 삭제된 사용자는 NotFound입니다
func (uc *UserUseCase) DeleteUser(ctx context.Context, id string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "UserUseCase.DeleteUser")
	defer func() { tracing.EndSpan(span, err) }()

	tracing.SetAttributes(ctx, attribute.String("user_id", id))

	var deleted *model.User
	err = uc.runWrite(ctx, func(ctx context.Context, sess mongo.Session) error {
		var deleteErr error
		deleted, deleteErr = mongodb.UpdateOne[model.User](ctx, uc.store, model.CollectionUsers,
			activeUserFilter(id),
			mongodb.UpdateDocument(bson.D{{Key: "$set", Value: bson.D{{Key: "is_deleted", Value: true}}}}),
			sess,
		)
		return deleteErr
	})
	if err != nil {
		logger.Error(ctx, "failed to delete user", logger.UserID(id), zap.Error(err))
		return err
	}
	if deleted == nil {
		return errors.NotFound("user")
	}

	uc.publish(ctx, model.EventUserDeleted, deleted)
	logger.Info(ctx, "user deleted", logger.UserID(id))
	return nil
}

// RefreshTokens는 refresh 토큰을 검증하고 새 토큰 쌍을 발급합니다
// access 토큰이거나 사용자가 더 이상 없으면 Unauthorized입니다
func (uc *UserUseCase) RefreshTokens(ctx context.Context, refreshToken string) (pair *auth.TokenPair, err error) {
	ctx, span := tracing.StartSpan(ctx, "UserUseCase.RefreshTokens")
	defer func() { tracing.EndSpan(span, err) }()

	token, err := uc.issuer.Decode(refreshToken)
	if err != nil {
		return nil, err
	}
	if token.Kind != auth.TokenKindRefresh {
		return nil, errors.Unauthorized()
	}

	user, err := mongodb.ReadOne[model.User](ctx, uc.store, model.CollectionUsers, activeUserFilter(token.UserID), nil)
	if err != nil {
		return nil, err
	}
	if user == nil {
		logger.Warn(ctx, "refresh token for unknown user", logger.UserID(token.UserID))
		return nil, errors.Unauthorized()
	}

	return uc.issuer.NewPair(user.ID)
}

// EnsureIndexes는 목록 조회와 통계에 쓰이는 users 인덱스를 생성합니다
func (uc *UserUseCase) EnsureIndexes(ctx context.Context) error {
	_, err := mongodb.EnsureIndexes(ctx, uc.store, model.CollectionUsers, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_deleted", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_deleted", Value: 1}, {Key: "user_status", Value: 1}}},
	})
	return err
}

// runWrite는 설정에 따라 트랜잭션 안에서 또는 세션 없이 fn을 실행합니다
func (uc *UserUseCase) runWrite(ctx context.Context, fn func(ctx context.Context, sess mongo.Session) error) error {
	if !uc.transactions {
		return fn(ctx, nil)
	}
	return uc.store.WithTransaction(ctx, fn)
}

// 발행 실패는 기록만 하고 쓰기 결과에는 영향을 주지 않습니다
func (uc *UserUseCase) publish(ctx context.Context, eventType model.EventType, user *model.User) {
	if err := uc.publisher.PublishUserEvent(ctx, model.NewUserEvent(eventType, user)); err != nil {
		logger.Warn(ctx, "failed to publish user event",
			logger.Field("event_type", eventType),
			logger.UserID(user.ID),
			zap.Error(err),
		)
	}
}

func newUserFromRequest(req *dto.CreateUserRequest) (*model.User, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return nil, errors.BadRequest("first_name and last_name are required")
	}

	user := model.NewUser(firstName, lastName)
	if req.Gender != "" {
		if !req.Gender.Valid() {
			return nil, errors.BadRequest("invalid gender")
		}
		user.Gender = req.Gender
	}
	if req.OAuthType != "" {
		if !req.OAuthType.Valid() {
			return nil, errors.BadRequest("invalid oauth_type")
		}
		user.OAuthType = req.OAuthType
	}
	return user, nil
}

func updateFields(req *dto.UpdateUserRequest) (bson.D, error) {
	set := bson.D{}
	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			return nil, errors.BadRequest("first_name cannot be empty")
		}
		set = append(set, bson.E{Key: "first_name", Value: literal(strings.TrimSpace(*req.FirstName))})
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			return nil, errors.BadRequest("last_name cannot be empty")
		}
		set = append(set, bson.E{Key: "last_name", Value: literal(strings.TrimSpace(*req.LastName))})
	}
	if req.UserStatus != nil {
		if !req.UserStatus.Valid() {
			return nil, errors.BadRequest("invalid user_status")
		}
		set = append(set, bson.E{Key: "user_status", Value: literal(*req.UserStatus)})
	}
	if req.Gender != nil {
		if !req.Gender.Valid() {
			return nil, errors.BadRequest("invalid gender")
		}
		set = append(set, bson.E{Key: "gender", Value: literal(*req.Gender)})
	}
	if len(set) == 0 {
		return nil, errors.BadRequest("no fields to update")
	}
	return set, nil
}

// 파이프라인 $set 안에서 문자열이 필드 경로나 변수로 해석되지 않도록 합니다
func literal(v interface{}) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func activeUserFilter(id string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "is_deleted", Value: false},
	}
}

// QueryRead 결과 맵을 구조체로 다시 디코딩합니다
func decodeDocument(doc bson.M, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return errors.Internal(err.Error())
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return errors.Internal(err.Error())
	}
	return nil
}
