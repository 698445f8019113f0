package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsSilent(t *testing.T) {
	require.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("restored", "file", "a.jpg")
	require.Contains(t, buf.String(), "file=a.jpg")

	SetLogger(nil)
	require.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}
