package auth

import (
	"testing"
	"time"

	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestIssuer(t *testing.T, clock *fakeClock) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("test-secret", WithClock(clock.Now))
	require.NoError(t, err)
	return issuer
}

func TestCreateFreshPair(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	issuer := newTestIssuer(t, clock)

	access, refresh, err := issuer.CreateFreshPair("u1")
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	accessToken, err := issuer.Decode(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", accessToken.UserID)
	assert.Equal(t, TokenKindAccess, accessToken.Kind)
	assert.Equal(t, uint64(1700000000+24*60*60), accessToken.Expiry)

	refreshToken, err := issuer.Decode(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenKindRefresh, refreshToken.Kind)
}

func TestDecodeExpired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	issuer := newTestIssuer(t, clock)

	access, _, err := issuer.CreateFreshPair("u1")
	require.NoError(t, err)

	clock.now = clock.now.Add(25 * time.Hour)

	token, err := issuer.Decode(access)
	assert.Nil(t, token)
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
}

func TestDecodeInvalid(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	issuer := newTestIssuer(t, clock)

	other, err := NewIssuer("another-secret", WithClock(clock.Now))
	require.NoError(t, err)
	foreign, _, err := other.CreateFreshPair("u1")
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Token{
		UserID: "u1", Kind: TokenKindAccess, Expiry: 1800000000,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	missingUser, err := issuer.Encode(Token{Kind: TokenKindAccess, Expiry: 1800000000})
	require.NoError(t, err)

	unknownKind, err := issuer.Encode(Token{UserID: "u1", Kind: "Admin", Expiry: 1800000000})
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"wrong secret": foreign,
		"alg none":     noneSigned,
		"missing user": missingUser,
		"unknown kind": unknownKind,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			token, err := issuer.Decode(raw)
			assert.Nil(t, token)
			assert.True(t, errors.Is(err, errors.ErrCodeBadRequest))
		})
	}
}

func TestHasExpired(t *testing.T) {
	token := Token{UserID: "u1", Kind: TokenKindAccess, Expiry: 100}

	assert.False(t, token.HasExpired(time.Unix(99, 0)))
	assert.True(t, token.HasExpired(time.Unix(100, 0)))
	assert.True(t, token.HasExpired(time.Unix(101, 0)))
}

func TestExtractToken(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	issuer := newTestIssuer(t, clock)

	access, _, err := issuer.CreateFreshPair("u1")
	require.NoError(t, err)

	token, err := issuer.ExtractToken("Bearer " + access)
	require.NoError(t, err)
	assert.Equal(t, "u1", token.UserID)

	for _, header := range []string{
		"",
		access,
		"bearer " + access,
		"Bearer  " + access,
		"Token " + access,
		"Bearer not-a-token",
	} {
		token, err := issuer.ExtractToken(header)
		assert.Nil(t, token)
		assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized), "header %q", header)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("")
	assert.Error(t, err)
}

func TestWithTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	issuer, err := NewIssuer("test-secret", WithClock(clock.Now), WithTTL(time.Hour, 0))
	require.NoError(t, err)

	pair, err := issuer.NewPair("u1")
	require.NoError(t, err)

	access, err := issuer.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000+3600), access.Expiry)

	refresh, err := issuer.Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000+24*3600), refresh.Expiry)
}
