// Package auth issues and verifies the signed session tokens carried as
// bearer credentials, and hashes PINs at rest.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"cashflow/internal/core"
)

var ErrInvalidToken = errors.New("invalid token")

// NewToken signs a session token for the user. The session is stateless:
// logout is the client discarding the token.
func NewToken(u core.User, secret string, ttl time.Duration) (string, error) {
	loginAt := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":   u.Email,
		"name":    u.Name,
		"loginAt": loginAt.Unix(),
		"exp":     loginAt.Add(ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and returns the session the
// token carries.
func ParseToken(tokenString, secret string) (core.Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return core.Session{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return core.Session{}, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	loginAt, _ := claims["loginAt"].(float64)
	if email == "" {
		return core.Session{}, ErrInvalidToken
	}

	return core.Session{
		Email:   email,
		Name:    name,
		LoginAt: core.NewTimestamp(time.Unix(int64(loginAt), 0)),
	}, nil
}
