package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupSplitsStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := setup(Config{Level: "debug"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("tick", "n", 1)
	logger.Error("flush failed", "status", 404)
	logger.Log(t.Context(), LevelTrace, "hidden")

	assert.Contains(t, stdout.String(), "msg=tick")
	assert.NotContains(t, stdout.String(), "flush failed")
	assert.Contains(t, stderr.String(), "msg=\"flush failed\"")
	assert.NotContains(t, stdout.String()+stderr.String(), "hidden")
}

func TestSetupJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, _, err := setup(Config{Level: "info", Format: "json"}, &stdout, &stderr)
	require.NoError(t, err)
	logger.Info("connected", "addr", "127.0.0.1:3243")
	assert.True(t, strings.HasPrefix(stdout.String(), "{"))
	assert.Contains(t, stdout.String(), `"addr":"127.0.0.1:3243"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("trace"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	r := NewRaw(&buf)
	r.Log(true, []byte{0x01, 0xab})
	r.Log(false, nil)
	line := buf.String()
	assert.Contains(t, line, "TX 2 bytes: 01 ab")
	assert.Equal(t, 1, strings.Count(line, "\n"))

	NewRaw(nil).Log(true, []byte{1})
}
