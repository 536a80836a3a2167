package model

// CollectionUsers는 사용자 컬렉션 이름입니다
const CollectionUsers = "users"

// UserStatus는 사용자 상태입니다
type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
)

// Valid는 알려진 상태인지 확인합니다
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// Gender는 사용자 성별입니다
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// OAuthType은 외부 로그인 제공자입니다
type OAuthType string

const (
	OAuthGoogle   OAuthType = "Google"
	OAuthFacebook OAuthType = "Facebook"
	OAuthNone     OAuthType = "None"
)

func (o OAuthType) Valid() bool {
	return o == OAuthGoogle || o == OAuthFacebook || o == OAuthNone
}

// User는 users 컬렉션에 저장되는 사용자 프로필입니다
type User struct {
	ID         string     `bson:"_id" json:"id"`
	FirstName  string     `bson:"first_name" json:"first_name"`
	LastName   string     `bson:"last_name" json:"last_name"`
	UserStatus UserStatus `bson:"user_status" json:"user_status"`
	Gender     Gender     `bson:"gender,omitempty" json:"gender,omitempty"`
	OAuthType  OAuthType  `bson:"oauth_type,omitempty" json:"oauth_type,omitempty"`
	CreatedAt  uint64     `bson:"created_at" json:"created_at"`
	UpdatedAt  uint64     `bson:"updated_at" json:"updated_at"`
	IsDeleted  bool       `bson:"is_deleted" json:"is_deleted"`
}

// NewUser는 기본 상태(Active)의 사용자를 생성합니다
func NewUser(firstName, lastName string) *User {
	return &User{
		FirstName:  firstName,
		LastName:   lastName,
		UserStatus: UserStatusActive,
		OAuthType:  OAuthNone,
	}
}

func (u *User) SetID(id string) {
	u.ID = id
}

func (u *User) SetCreatedAt(createdAt uint64) {
	u.CreatedAt = createdAt
}

func (u *User) SetUpdatedAt(updatedAt uint64) {
	u.UpdatedAt = updatedAt
}
