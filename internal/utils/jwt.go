package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/arnavdesai/MentorLink/internal/apperr"
)

// AccessClaims are the claims this core reads from the identity
// service's access tokens.
type AccessClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// ParseAccessToken validates an HMAC-signed access token and returns
// its claims.
func ParseAccessToken(tokenStr, secret string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Newf(apperr.KindAuthorization, "unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuthorization, "invalid or expired token", err)
	}
	if !token.Valid {
		return nil, apperr.New(apperr.KindAuthorization, "invalid token")
	}
	return claims, nil
}

// SignAccessToken mints a token the way the identity service does.
// Used by tests and local tooling.
func SignAccessToken(userID uuid.UUID, role, secret string, ttl time.Duration) (string, error) {
	claims := AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
