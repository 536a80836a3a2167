package dto

import (
	"github.com/YouSangSon/docstore-service/internal/domain/model"
	"github.com/YouSangSon/docstore-service/internal/pkg/auth"
)

// CreateUserRequest는 사용자 생성 요청 DTO입니다
type CreateUserRequest struct {
	FirstName string          `json:"first_name" binding:"required"`
	LastName  string          `json:"last_name" binding:"required"`
	Gender    model.Gender    `json:"gender,omitempty"`
	OAuthType model.OAuthType `json:"oauth_type,omitempty"`
}

// CreateUserResponse는 사용자 생성 응답 DTO입니다
type CreateUserResponse struct {
	User   *model.User     `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// UpdateUserRequest는 사용자 수정 요청 DTO입니다
// nil 필드는 변경하지 않습니다
type UpdateUserRequest struct {
	FirstName  *string           `json:"first_name,omitempty"`
	LastName   *string           `json:"last_name,omitempty"`
	UserStatus *model.UserStatus `json:"user_status,omitempty"`
	Gender     *model.Gender     `json:"gender,omitempty"`
}

// RefreshTokenRequest는 토큰 갱신 요청 DTO입니다
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// PageMetadata는 페이지 정보입니다
type PageMetadata struct {
	CurrentPage  int   `bson:"current_page" json:"current_page"`
	PageSize     int   `bson:"page_size" json:"page_size"`
	TotalRecords int64 `bson:"total_records" json:"total_records"`
	HasNextPage  bool  `bson:"has_next_page" json:"has_next_page"`
}

// UserPage는 사용자 목록 응답 DTO입니다
type UserPage struct {
	Data     []model.User `bson:"data" json:"data"`
	Metadata PageMetadata `bson:"metadata" json:"metadata"`
}

// UserStats는 사용자 상태별 집계입니다
type UserStats struct {
	Total    int64 `bson:"total" json:"total"`
	Active   int64 `bson:"active" json:"active"`
	Inactive int64 `bson:"inactive" json:"inactive"`
}
