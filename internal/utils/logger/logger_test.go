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

func TestLoggerWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "chipctl.log")

	log, err := New(&Config{
		LogFile: path,
		MaxSize: 1,
		Console: zapcore.AddSync(&console),
	})
	require.NoError(t, err)

	log.WithOperation("buy").Info("Chips bought", zap.Uint64("chips", 1700))
	log.Debug("hidden at info level")
	require.NoError(t, log.Sync())

	assert.Contains(t, console.String(), "Chips bought")
	assert.NotContains(t, console.String(), "hidden")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Chips bought", entry["msg"])
	assert.Equal(t, "buy", entry["operation"])
	assert.NotEmpty(t, entry["correlation_id"])
	assert.EqualValues(t, 1700, entry["chips"])
}

func TestLoggerConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	log, err := New(&Config{Development: true, Console: zapcore.AddSync(&console)})
	require.NoError(t, err)

	end := log.TrackPerformance("state")
	end()
	log.WithTransaction("5sig").Error("failed", zap.Error(assert.AnError))

	out := console.String()
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, "5sig")
	assert.Contains(t, out, assert.AnError.Error())
}

func TestWithOperationUsesFreshCorrelationID(t *testing.T) {
	var console bytes.Buffer
	log, err := New(&Config{Console: zapcore.AddSync(&console)})
	require.NoError(t, err)

	log.WithOperation("a").Info("one")
	log.WithOperation("a").Info("two")

	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotEqual(t, correlationID(lines[0]), correlationID(lines[1]))
}

func correlationID(line string) string {
	_, after, _ := strings.Cut(line, `"correlation_id": "`)
	id, _, _ := strings.Cut(after, `"`)
	return id
}
