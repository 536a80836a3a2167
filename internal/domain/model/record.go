package model

// Record는 범용 저장소 계층이 생성 시점에 갱신하는 최소 계약입니다
// 생성 시 ID와 두 타임스탬프는 항상 서버 값으로 덮어씁니다
type Record interface {
	SetID(id string)
	SetCreatedAt(createdAt uint64)
	SetUpdatedAt(updatedAt uint64)
}
