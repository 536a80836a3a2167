package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType은 사용자 변경 이벤트 종류입니다
type EventType string

const (
	EventUserCreated EventType = "user.created"
	EventUserUpdated EventType = "user.updated"
	EventUserDeleted EventType = "user.deleted"
)

// UserEvent는 사용자 변경 시 발행되는 이벤트입니다
type UserEvent struct {
	EventID    string    `json:"event_id"`
	EventType  EventType `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"user_id"`
	Collection string    `json:"collection"`
	Data       *User     `json:"data,omitempty"`
}

// NewUserEvent는 사용자 스냅샷을 담은 이벤트를 생성합니다
func NewUserEvent(eventType EventType, user *User) *UserEvent {
	return &UserEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
		UserID:     user.ID,
		Collection: CollectionUsers,
		Data:       user,
	}
}
