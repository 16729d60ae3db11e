package logging

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
)

func TestNewInvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	logger, err := New(Config{Level: "info"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
}

func TestConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newWithConsole(Config{Level: "warn", Console: true}, &buf)
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("Contract call failed", zap.String("method", "stake"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "Contract call failed")
	assert.Contains(t, out, "stake")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dappctl.log")
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.File = path
	cfg.Console = false

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Debug("Contract bound", zap.String("address", "0xabc"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Contract bound", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "0xabc", entry["address"])
}
