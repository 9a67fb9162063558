package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	jwt.StandardClaims
}

func GetToken(u models.User, ttl time.Duration, secret string) (string, error) {
	now := time.Now()

	claims := Claims{
		ID:       u.ID,
		Username: u.Username,
		StandardClaims: jwt.StandardClaims{ //nolint:exhaustruct
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signed string error: %w", err)
	}

	return token, nil
}

func ParseToken(token, secret string) (Claims, error) {
	var claims Claims

	t, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	if !t.Valid || claims.ID == 0 {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
