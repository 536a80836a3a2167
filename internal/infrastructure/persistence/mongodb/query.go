package mongodb

import (
	"context"
	"maps"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// AggregateRequest는 QueryRead에 전달하는 집계 요청입니다
type AggregateRequest struct {
	Collection string
	Pipeline   mongo.Pipeline
	// Page는 1부터 시작합니다. 0 이하는 기본값(1)으로 처리합니다
	Page int
	// PageSize가 0 이하이거나 MaxPageSize 이상이면 DefaultPageSize를 사용합니다
	PageSize int
	// PagingData가 true이면 페이징 단계를 파이프라인 끝에 붙입니다
	PagingData bool
}

// NormalizePaging은 페이지 번호와 크기를 허용 범위로 보정합니다
func NormalizePaging(page, pageSize int) (int, int) {
	if pageSize <= 0 || pageSize >= MaxPageSize {
		pageSize = DefaultPageSize
	}
	if page <= 0 {
		page = DefaultPage
	}
	return page, pageSize
}

// PagingStages는 data/metadata 형태의 결과를 만드는 페이징 단계를 반환합니다
//
//	$facet: data는 skip/limit(size+1), total_count는 전체 개수
//	$addFields: metadata {current_page, page_size, total_records, has_next_page}
//	$project: data를 page_size 개로 자름
func PagingStages(page, pageSize int) mongo.Pipeline {
	page, pageSize = NormalizePaging(page, pageSize)
	skip := (page - 1) * pageSize

	return mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "data", Value: bson.A{
				bson.D{{Key: "$skip", Value: skip}},
				bson.D{{Key: "$limit", Value: pageSize + 1}},
			}},
			{Key: "total_count", Value: bson.A{
				bson.D{{Key: "$count", Value: "total"}},
			}},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "metadata", Value: bson.D{
				{Key: "current_page", Value: page},
				{Key: "page_size", Value: pageSize},
				{Key: "total_records", Value: bson.D{
					{Key: "$ifNull", Value: bson.A{
						bson.D{{Key: "$arrayElemAt", Value: bson.A{"$total_count.total", 0}}},
						0,
					}},
				}},
				{Key: "has_next_page", Value: bson.D{
					{Key: "$gt", Value: bson.A{bson.D{{Key: "$size", Value: "$data"}}, pageSize}},
				}},
			}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "data", Value: bson.D{{Key: "$slice", Value: bson.A{"$data", pageSize}}}},
			{Key: "metadata", Value: 1},
		}}},
	}
}

// pipeline은 요청 파이프라인을 복사하고 필요하면 페이징 단계를 붙입니다
func (r AggregateRequest) pipeline() mongo.Pipeline {
	pipeline := make(mongo.Pipeline, 0, len(r.Pipeline)+3)
	pipeline = append(pipeline, r.Pipeline...)
	if r.PagingData {
		pipeline = append(pipeline, PagingStages(r.Page, r.PageSize)...)
	}
	return pipeline
}

// QueryRead는 집계 파이프라인을 실행하고 모든 결과 문서를 하나의 맵으로 병합합니다
// 같은 키는 나중 문서의 값이 남습니다
func QueryRead(
	ctx context.Context,
	s *Store,
	req AggregateRequest,
	sess mongo.Session,
	opts ...*options.AggregateOptions,
) (result bson.M, err error) {
	ctx, done := s.observe(ctx, "query_read", req.Collection)
	defer func() { done(err) }()

	sessCtx := withSession(ctx, sess)
	cursor, aggErr := s.Collection(req.Collection).Aggregate(sessCtx, req.pipeline(), opts...)
	if aggErr != nil {
		return nil, errors.FromStore(aggErr)
	}
	defer cursor.Close(sessCtx)

	merged := bson.M{}
	for cursor.Next(sessCtx) {
		var doc bson.M
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			return nil, errors.FromStore(decodeErr)
		}
		maps.Copy(merged, doc)
	}
	if cursorErr := cursor.Err(); cursorErr != nil {
		return nil, errors.FromStore(cursorErr)
	}
	return merged, nil
}
