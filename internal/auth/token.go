package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and validates the HS256 bearer tokens the messaging
// gateway presents on webhook calls.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Claims describes the webhook JWT payload.
type Claims struct {
	Gateway string `json:"gw,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a token for the named gateway. Used by
// deployment tooling and tests; the bot itself only verifies.
func (tm *TokenManager) GenerateToken(gatewayName string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Gateway: gatewayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   gatewayName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
