package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSON(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "server.log")

	logger, cleanup, err := Setup(Config{
		Level:    "info",
		FilePath: logPath,
		// 1 MB cap keeps the test away from rotation.
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	})
	require.NoError(t, err)

	logger.Info("index rebuilt", slog.Int("chunks", 42))
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entry map[string]any
	line := strings.TrimSpace(string(data))
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "index rebuilt", entry["msg"])
	assert.Equal(t, float64(42), entry["chunks"])
}

func TestSetupRespectsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "server.log")

	logger, cleanup, err := Setup(Config{
		Level:         "warn",
		FilePath:      logPath,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	})
	require.NoError(t, err)

	logger.Info("should be filtered")
	logger.Warn("should appear")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should be filtered")
	assert.Contains(t, string(data), "should appear")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "server.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// Force a tiny cap so two writes trigger rotation.
	w.maxBytes = 16

	_, err = w.Write([]byte("first entry padding\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second entry\n"))
	require.NoError(t, err)

	rotated, err := os.ReadFile(logPath + ".1")
	require.NoError(t, err)
	assert.Contains(t, string(rotated), "first entry")

	current, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(current), "second entry")
}

func TestRotatingWriterPrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "server.log")

	require.NoError(t, os.WriteFile(logPath+".1", []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(logPath+".2", []byte("two"), 0o644))

	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	w.maxBytes = 1
	_, err = w.Write([]byte("trigger rotation\n"))
	require.NoError(t, err)

	// .2 was at the keep limit and gets dropped, .1 shifts to .2.
	_, err = os.Stat(logPath + ".3")
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(logPath + ".2")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}
