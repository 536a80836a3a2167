package mongodb

import (
	"sort"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type updateKind int

const (
	updateInvalid updateKind = iota
	updateDocument
	updatePipeline
)

// Update는 UpdateOne에 전달하는 변경 내용입니다
// 단일 문서 형태 또는 파이프라인 단계 목록 중 하나이며, zero value는 유효하지 않습니다
type Update struct {
	kind     updateKind
	document bson.D
	pipeline mongo.Pipeline
}

// UpdateDocument는 단일 문서 형태의 변경 내용을 만듭니다
// updated_at 단계와 함께 파이프라인으로 실행되므로 값은 집계 표현식으로 해석됩니다
// '$'로 시작하는 사용자 입력은 {$literal: v}로 감싸서 넘겨야 합니다
func UpdateDocument(doc bson.D) Update {
	return Update{kind: updateDocument, document: doc}
}

// UpdatePipeline은 파이프라인 형태의 변경 내용을 만듭니다
func UpdatePipeline(stages mongo.Pipeline) Update {
	return Update{kind: updatePipeline, pipeline: stages}
}

// NewUpdate는 임의의 값을 문서 또는 파이프라인으로 분류합니다
// 둘 중 어느 것도 아니면 유효하지 않은 Update를 반환하고, UpdateOne에서 "Pipeline error"가 됩니다
func NewUpdate(v interface{}) Update {
	switch u := v.(type) {
	case Update:
		return u
	case bson.D:
		return UpdateDocument(u)
	case bson.M:
		return UpdateDocument(sortedDocument(u))
	case map[string]interface{}:
		return UpdateDocument(sortedDocument(u))
	case mongo.Pipeline:
		return UpdatePipeline(u)
	case []bson.D:
		return UpdatePipeline(u)
	case []bson.M:
		stages := make(mongo.Pipeline, 0, len(u))
		for _, stage := range u {
			stages = append(stages, sortedDocument(stage))
		}
		return UpdatePipeline(stages)
	case bson.A:
		return pipelineFromValues(u)
	case []interface{}:
		return pipelineFromValues(u)
	default:
		return Update{}
	}
}

// Valid는 문서 또는 파이프라인 형태인지 확인합니다
func (u Update) Valid() bool {
	return u.kind != updateInvalid
}

// IsPipeline은 파이프라인 형태인지 확인합니다
func (u Update) IsPipeline() bool {
	return u.kind == updatePipeline
}

// withUpdatedAt은 updated_at을 갱신하는 $set 단계를 마지막에 붙인 파이프라인을 반환합니다
// 문서 형태는 [문서, $set] 두 단계 파이프라인이 됩니다
func (u Update) withUpdatedAt(now int64) (mongo.Pipeline, error) {
	touch := bson.D{{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}}}

	switch u.kind {
	case updateDocument:
		return mongo.Pipeline{u.document, touch}, nil
	case updatePipeline:
		pipeline := make(mongo.Pipeline, 0, len(u.pipeline)+1)
		pipeline = append(pipeline, u.pipeline...)
		return append(pipeline, touch), nil
	default:
		return nil, errors.Internal(errors.MsgPipelineError)
	}
}

func pipelineFromValues(values []interface{}) Update {
	stages := make(mongo.Pipeline, 0, len(values))
	for _, v := range values {
		switch stage := v.(type) {
		case bson.D:
			stages = append(stages, stage)
		case bson.M:
			stages = append(stages, sortedDocument(stage))
		case map[string]interface{}:
			stages = append(stages, sortedDocument(stage))
		default:
			return Update{}
		}
	}
	return UpdatePipeline(stages)
}

// map은 순서가 없으므로 키 순으로 정렬해 결정적인 문서를 만듭니다
func sortedDocument(m map[string]interface{}) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: m[k]})
	}
	return doc
}
