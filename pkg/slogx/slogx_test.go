package slogx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSONWithServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "minimal-api", Level: "info", Format: "json", Output: &buf})

	logger.Info("hello", "request_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "minimal-api", entry["service"])
	require.Equal(t, "abc", entry["request_id"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "text", Output: &buf})

	logger.Info("hello")
	require.True(t, strings.Contains(buf.String(), "msg=hello"))
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info("dropped")
	require.Zero(t, buf.Len())

	logger.Warn("kept")
	require.NotZero(t, buf.Len())
}

func TestParseLevel_FallsBackToInfo(t *testing.T) {
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
	require.Equal(t, slog.LevelDebug, parseLevel("debug"))
	require.Equal(t, slog.LevelError, parseLevel("ERROR"))
}
