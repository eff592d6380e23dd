package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
}

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := New(level, "json")
		require.NoError(t, err, level)
		assert.NotNil(t, log)
	}
}

func TestBuild_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := build(zapcore.InfoLevel, "json", zapcore.AddSync(&buf))

	log.Named("http").Info("request", zap.Int("status", 200))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "http", entry["logger"])
	assert.EqualValues(t, 200, entry["status"])
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry, "caller")
}

func TestBuild_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := build(zapcore.WarnLevel, "json", zapcore.AddSync(&buf))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestBuild_Console(t *testing.T) {
	var buf bytes.Buffer
	log := build(zapcore.InfoLevel, "console", zapcore.AddSync(&buf))

	log.Info("plain line")

	assert.Contains(t, buf.String(), "plain line")
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}

func TestNewWithOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handover.log")

	log, err := NewWithOutput("info", "json", path)
	require.NoError(t, err)
	log.Info("to file")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNewWithOutput_BadPath(t *testing.T) {
	_, err := NewWithOutput("info", "json", filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
}
