package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-lending-backend/internal/domain"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(secret, time.Hour)

	token, err := m.GenerateAccessToken(42, domain.RoleEmployee)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: 42, Role: domain.RoleEmployee}, claims.Identity())
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager(secret, time.Hour)

	t.Run("Expired", func(t *testing.T) {
		expired := &tokenManager{secret: []byte(secret), ttl: time.Minute, now: func() time.Time { return time.Now().Add(-time.Hour) }}
		token, err := expired.GenerateAccessToken(1, domain.RoleCustomer)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)
		token, err := other.GenerateAccessToken(1, domain.RoleCustomer)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		token, err := m.GenerateAccessToken(1, "AUDITOR")
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongType", func(t *testing.T) {
		claims := UserClaims{
			UserID: 1,
			Role:   domain.RoleCustomer,
			Type:   "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{audience},
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
