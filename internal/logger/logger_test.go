package logger_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/edgard/chatwidget/internal/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewLogger("warn", true, &buf)
	log.Info("dropped")
	log.Warn("kept", "component", "test")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"component":"test"`)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", logger.Truncate("short", 10))
	assert.Equal(t, "abcdefg...", logger.Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "...", logger.Truncate("abcdef", 2))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"héllo wörld", 5, "h..."},
		{"日本語テキスト", 8, "日..."},
		{"日本語テキスト", 9, "日本..."},
	}
	for _, tt := range tests {
		got := logger.Truncate(tt.in, tt.maxLen)
		assert.Equal(t, tt.want, got)
		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, len(got), tt.maxLen)
	}
}
