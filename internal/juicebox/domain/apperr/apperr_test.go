package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("create post error: %w", Validation("title is required"))

	require.ErrorIs(t, err, ErrValidation)
	require.NotErrorIs(t, err, ErrPostNotFound)
	require.Equal(t, KindValidation, KindOf(err))
	require.EqualError(t, err, "create post error: title is required")
}

func TestKindOfUnknown(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	require.Equal(t, "UnknownError", KindOf(nil).String())
	require.Equal(t, "PostNotFoundError", KindPostNotFound.String())
}
