package ctxlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/bjaus/xmlconv/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Parallel()
	logger := ctxlog.Discard()
	ctx := ctxlog.WithLogger(context.Background(), logger)
	assert.Same(t, logger, ctxlog.FromContext(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	t.Parallel()
	assert.Same(t, slog.Default(), ctxlog.FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"WARN":  slog.LevelWarn,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, ctxlog.ParseLevel(in))
		})
	}
}

func TestNewJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := ctxlog.New("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
	assert.Equal(t, "WARN", rec["level"])
}

func TestNewText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := ctxlog.New("debug", "text", &buf)
	logger.Debug("hello", "n", 1)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "n=1")
}
