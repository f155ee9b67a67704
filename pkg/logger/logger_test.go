package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	Info("recipe created", map[string]interface{}{"recipe_id": 7})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "recipe created", entry["message"])
	assert.Equal(t, float64(7), entry["recipe_id"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLogger_WithContextAndError(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	WithContext(map[string]interface{}{"request_id": "abc"}).
		Error("query failed", errors.New("boom"), map[string]interface{}{"table": "recipes"})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "recipes", entry["table"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "warn", Format: "json", Output: &buf})

	Debug("hidden")
	Info("hidden")
	assert.Zero(t, buf.Len())

	Warn("shown")
	assert.NotZero(t, buf.Len())

	Initialize(Config{Level: "debug", Format: "json", Output: &buf})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLogLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLogLevel("warning").String())
	assert.Equal(t, "info", parseLogLevel("").String())
}
