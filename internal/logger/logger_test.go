package logger_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelscan/internal/logger"
)

func TestSetup_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labelscan.log")

	err := logger.Setup(logger.LogConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = logger.Setup(logger.DefaultConfig())
	})

	log := logger.WithComponent("batch")
	log.Info().Str("file", "label.jpg").Msg("Item processed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "batch", entry["component"])
	assert.Equal(t, "label.jpg", entry["file"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_InvalidLevel(t *testing.T) {
	err := logger.Setup(logger.LogConfig{Level: "loud", Format: "json", Output: "stderr"})

	assert.Error(t, err)
}

func TestWithRequestID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, logger.Setup(logger.LogConfig{Level: "info", Format: "json", Output: path}))
	t.Cleanup(func() {
		_ = logger.Setup(logger.DefaultConfig())
	})

	log := logger.WithRequestID("run-1")
	log.Info().Msg("Starting batch")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id":"run-1"`)
}

func TestForRunAndItem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.log")
	require.NoError(t, logger.Setup(logger.LogConfig{Level: "info", Format: "json", Output: path}))
	t.Cleanup(func() {
		_ = logger.Setup(logger.DefaultConfig())
	})

	log := logger.ForItem(logger.ForRun(logger.WithComponent("batch"), "run-2"), "abc123", "IE3675.jpg")
	log.Info().Msg("Item processed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "batch", entry["component"])
	assert.Equal(t, "run-2", entry["request_id"])
	assert.Equal(t, "abc123", entry["item_id"])
	assert.Equal(t, "IE3675.jpg", entry["file"])
}
