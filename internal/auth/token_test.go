package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerateAndParse(t *testing.T) {
	tokens := NewTokenManager("test-secret")
	userID := uuid.New()

	token, err := tokens.Generate(userID)
	require.NoError(t, err)

	got, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenExpiresAfterSevenDays(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	token, err := NewTokenManager("test-secret").WithClock(fixedClock(issued)).Generate(userID)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret").WithClock(fixedClock(issued.Add(time.Second))).Parse(token)
	assert.NoError(t, err, "token must be valid right after issuance")

	_, err = NewTokenManager("test-secret").WithClock(fixedClock(issued.Add(7*24*time.Hour - time.Second))).Parse(token)
	assert.NoError(t, err, "token must be valid just before expiry")

	_, err = NewTokenManager("test-secret").WithClock(fixedClock(issued.Add(7*24*time.Hour + time.Second))).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenManager("other-secret").Generate(uuid.New())
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnexpectedAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingExpiryAndBadSubject(t *testing.T) {
	secret := []byte("test-secret")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: uuid.NewString()}).SignedString(secret)
	require.NoError(t, err)
	_, err = NewTokenManager("test-secret").Parse(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = NewTokenManager("test-secret").Parse(badSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenManager("test-secret").Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		err    error
	}{
		{"missing", "", "", ErrMissingToken},
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi", nil},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", ErrInvalidToken},
		{"no token", "Bearer ", "", ErrInvalidToken},
		{"no separator", "Bearerabc", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/loans", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := BearerToken(req)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, hasher.Verify(hash, "password123"))
	assert.False(t, hasher.Verify(hash, "password124"))

	other, err := hasher.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")
}
