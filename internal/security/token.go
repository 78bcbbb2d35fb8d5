package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"warehouse-lending-backend/internal/domain"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const TokenTypeAccess TokenType = "access"

const (
	issuer   = "warehouse-identity"
	audience = "lending-api"
)

// UserClaims carries the identity the upstream identity service asserted.
type UserClaims struct {
	UserID int32       `json:"user_id"`
	Role   domain.Role `json:"role"`
	Type   TokenType   `json:"type"`
	jwt.RegisteredClaims
}

func (c *UserClaims) Identity() domain.Identity {
	return domain.Identity{UserID: c.UserID, Role: c.Role}
}

type TokenManager interface {
	GenerateAccessToken(userID int32, role domain.Role) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateAccessToken is used by tooling and tests; production tokens come from the identity service.
func (m *tokenManager) GenerateAccessToken(userID int32, role domain.Role) (string, error) {
	now := m.now()
	claims := UserClaims{
		UserID: userID,
		Role:   role,
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithAudience(audience), jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.UserID == 0 && claims.Subject != "" {
		uid, _ := strconv.Atoi(claims.Subject)
		claims.UserID = int32(uid)
	}
	switch claims.Role {
	case domain.RoleCustomer, domain.RoleEmployee, domain.RoleAdmin:
	default:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
