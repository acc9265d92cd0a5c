package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), tt.input)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "JSON", slog.LevelInfo)

	logger.Info("entry created", "uid", "abc")
	logger.Debug("dropped")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "entry created", m["msg"])
	assert.Equal(t, "abc", m["uid"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "text", slog.LevelDebug)

	logger.Debug("routed", "tier", 1)

	assert.Contains(t, buf.String(), "msg=routed")
	assert.Contains(t, buf.String(), "tier=1")
}
