package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL은 access/refresh 토큰의 기본 유효 기간입니다
	DefaultTokenTTL = 24 * time.Hour

	bearerPrefix = "Bearer "
)

// TokenKind는 토큰 종류입니다
type TokenKind string

const (
	TokenKindAccess  TokenKind = "Access"
	TokenKindRefresh TokenKind = "Refresh"
)

// Valid는 알려진 토큰 종류인지 확인합니다
func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// Token은 세션 토큰의 claim입니다
// 만료는 expiry(unix 초)로만 표현하며 표준 exp claim은 사용하지 않습니다
type Token struct {
	UserID string    `json:"user_id"`
	Kind   TokenKind `json:"token_type"`
	Expiry uint64    `json:"expiry"`
}

// HasExpired는 now가 만료 시각 이후인지 확인합니다
func (t Token) HasExpired(now time.Time) bool {
	return uint64(now.Unix()) >= t.Expiry
}

// jwt.Claims 구현. 표준 시간 claim이 없으므로 라이브러리의 시간 검증은 건너뜁니다

func (t *Token) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (t *Token) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (t *Token) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (t *Token) GetIssuer() (string, error)                   { return "", nil }
func (t *Token) GetSubject() (string, error)                  { return t.UserID, nil }
func (t *Token) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// TokenPair는 발급된 access/refresh 토큰 쌍입니다
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer는 HS256 서명 토큰을 발급하고 검증합니다
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option은 Issuer 설정 함수입니다
type Option func(*Issuer)

// WithTTL은 토큰 유효 기간을 지정합니다. 0 이하는 기본값을 사용합니다
func WithTTL(access, refresh time.Duration) Option {
	return func(i *Issuer) {
		if access > 0 {
			i.accessTTL = access
		}
		if refresh > 0 {
			i.refreshTTL = refresh
		}
	}
}

// WithClock은 현재 시각 함수를 교체합니다
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer는 새로운 Issuer를 생성합니다
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.Internal("jwt secret cannot be empty")
	}

	i := &Issuer{
		secret:     []byte(secret),
		accessTTL:  DefaultTokenTTL,
		refreshTTL: DefaultTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// CreateFreshPair는 사용자에 대한 access/refresh 토큰 쌍을 발급합니다
func (i *Issuer) CreateFreshPair(userID string) (access, refresh string, err error) {
	now := i.now()

	access, err = i.Encode(Token{
		UserID: userID,
		Kind:   TokenKindAccess,
		Expiry: uint64(now.Add(i.accessTTL).Unix()),
	})
	if err != nil {
		return "", "", err
	}

	refresh, err = i.Encode(Token{
		UserID: userID,
		Kind:   TokenKindRefresh,
		Expiry: uint64(now.Add(i.refreshTTL).Unix()),
	})
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// NewPair는 CreateFreshPair 결과를 TokenPair로 반환합니다
func (i *Issuer) NewPair(userID string) (*TokenPair, error) {
	access, refresh, err := i.CreateFreshPair(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Encode는 토큰을 서명된 문자열로 만듭니다
func (i *Issuer) Encode(token Token) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &token).SignedString(i.secret)
	if err != nil {
		return "", errors.Internal(err.Error())
	}
	return signed, nil
}

// Decode는 서명과 형태를 검증한 뒤 만료 여부를 확인합니다
// 서명/형태 오류는 BadRequest, 만료는 Unauthorized입니다
func (i *Issuer) Decode(tokenString string) (*Token, error) {
	var token Token
	parsed, err := jwt.ParseWithClaims(tokenString, &token, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.BadRequest("invalid token")
	}

	if token.UserID == "" || !token.Kind.Valid() {
		return nil, errors.BadRequest("invalid token")
	}

	if token.HasExpired(i.now()) {
		return nil, errors.Unauthorized()
	}

	return &token, nil
}

// ExtractToken은 Authorization 헤더 값에서 토큰을 꺼내 검증합니다
// "Bearer " 접두사가 정확히 있어야 하며 모든 실패는 Unauthorized입니다
func (i *Issuer) ExtractToken(authHeader string) (*Token, error) {
	raw, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok {
		return nil, errors.Unauthorized()
	}

	token, err := i.Decode(raw)
	if err != nil {
		return nil, errors.Unauthorized()
	}
	return token, nil
}

func (i *Issuer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return i.secret, nil
}
