package util

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(level string, format LogFormat) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l, _ := NewLoggerWithOptions(LoggerOptions{Level: level, File: os.DevNull, Format: format})
	l.outputs = []Output{NewConsoleOutput(&buf, format)}
	return l, &buf
}

func TestLoggerLevels(t *testing.T) {
	l, buf := bufferLogger("warn", FormatText)

	l.Info("hidden")
	l.Warn("shown")
	l.Errorf("failed %d", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown")
	assert.Contains(t, out, "[ERROR] failed 3")
}

func TestLoggerFieldsAreSorted(t *testing.T) {
	l, buf := bufferLogger("debug", FormatText)

	l.With(F("zeta", 1)).Debug("msg", F("alpha", "a"))

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "msg alpha=a zeta=1"), line)
}

func TestLoggerJSON(t *testing.T) {
	l, buf := bufferLogger("info", FormatJSON)
	l.Info("rendered", F("frames", 3))

	var entry LogEntry
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "rendered", entry.Message)
	assert.EqualValues(t, 3, entry.Fields["frames"])
}

func TestLoggerWithContext(t *testing.T) {
	l, buf := bufferLogger("info", FormatText)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	l.WithContext(ctx).Info("handled")
	l.WithContext(context.Background()).Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "request_id=req-1")
	assert.NotContains(t, lines[1], "request_id")
}

func TestWithSharesLevel(t *testing.T) {
	l, buf := bufferLogger("info", FormatText)
	child := l.With(F("k", "v"))

	l.SetLevel(LevelError)
	child.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewLogger("debug", path, false)
	require.NoError(t, err)

	l.Debugf("parsed %d items", 4)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] parsed 4 items")
}

func TestNewLoggerBadFile(t *testing.T) {
	_, err := NewLogger("info", filepath.Join(t.TempDir(), "missing", "app.log"), false)
	assert.Error(t, err)
}

func TestNewLoggerWithoutOutputsOnlyWarns(t *testing.T) {
	l, err := NewLogger("debug", "", false)
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, l.level)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLogLevel("nonsense"))
	assert.Equal(t, "ERROR", LevelError.String())
}

func TestGlobalLoggerNilSafe(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		LogInfo("nothing")
		LogDebugf("nothing %d", 1)
	})
	assert.Nil(t, LogWithContext(context.Background()))
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
