package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToConfiguredOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")

	lg, err := New(config.Logger{Level: "debug", Output: []string{out}, ErrOutput: []string{"stderr"}})
	require.NoError(t, err)

	lg.With("request_id", "abc").Infof("post %d created", 7)
	_ = lg.Sync()

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(b), "post 7 created")
	require.Contains(t, string(b), `"request_id":"abc"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.Logger{Level: "loud"})
	require.Error(t, err)
}
