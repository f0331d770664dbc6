package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/planner/internal/model"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "planner.log")

	logger, cleanup, err := New(model.LogConfig{Level: "info", File: path}, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible", zap.String("op", "load"))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "load", entry["op"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(model.LogConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	logger, cleanup, err := New(model.LogConfig{Level: "debug"}, false)
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, logger)
	logger.Info("dropped")
}
