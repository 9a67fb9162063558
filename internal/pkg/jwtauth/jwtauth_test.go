package jwtauth

import (
	"testing"
	"time"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GetToken(models.User{ID: 7, Username: "albert"}, time.Hour, "secret")
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.ID)
	require.Equal(t, "albert", claims.Username)
}

func TestParseTokenRejects(t *testing.T) {
	token, err := GetToken(models.User{ID: 7, Username: "albert"}, time.Hour, "secret")
	require.NoError(t, err)

	_, err = ParseToken(token, "other")
	require.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GetToken(models.User{ID: 7, Username: "albert"}, -time.Hour, "secret")
	require.NoError(t, err)

	_, err = ParseToken(expired, "secret")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("not-a-token", "secret")
	require.ErrorIs(t, err, ErrInvalidToken)
}
