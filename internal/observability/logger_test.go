// internal/observability/logger_test.go
package observability

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

	"github.com/xkilldash9x/gridpoint/internal/config"
)

func TestBuild(t *testing.T) {
	t.Run("console logger colors levels", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Build(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.AddSync(&buf))

		logger.Info("This is a test message.")
		require.NoError(t, logger.Sync())

		out := buf.String()
		assert.Contains(t, out, "INFO")
		assert.Contains(t, out, "This is a test message.")
		assert.Contains(t, out, ansiColors["green"])
		assert.Contains(t, out, ansiReset)
		assert.Contains(t, out, "TestService.")
	})

	t.Run("json logger emits structured fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Build(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "JSONTest"}, zapcore.AddSync(&buf))

		logger.Info("structured", zap.Int("cell", 6))
		require.NoError(t, logger.Sync())

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "structured", entry["msg"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.EqualValues(t, 6, entry["cell"])
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Build(config.LoggerConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))

		logger.Info("hidden")
		logger.Warn("visible")
		require.NoError(t, logger.Sync())

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Build(config.LoggerConfig{Level: "chatty", Format: "json"}, zapcore.AddSync(&buf))

		logger.Debug("debug line")
		logger.Info("info line")
		require.NoError(t, logger.Sync())

		assert.NotContains(t, buf.String(), "debug line")
		assert.Contains(t, buf.String(), "info line")
	})

	t.Run("file sink writes json", func(t *testing.T) {
		var buf bytes.Buffer
		logFile := filepath.Join(t.TempDir(), "gridpoint.log")
		logger := Build(config.LoggerConfig{
			Level:   "info",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		}, zapcore.AddSync(&buf))

		logger.Info("to file")
		_ = logger.Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		line := strings.TrimSpace(string(data))
		assert.True(t, strings.HasPrefix(line, "{"), "file output should be JSON")
		assert.Contains(t, line, "to file")
	})
}

func TestInitializeAndGetLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, zapcore.AddSync(&first))
	// Initialization only happens once.
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, zapcore.AddSync(&second))

	GetLogger().Info("hello")
	Sync()

	assert.Contains(t, first.String(), "hello")
	assert.Empty(t, second.String())
}

func TestGetLogger_Fallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	// Sync on an uninitialized global is a no-op.
	Sync()
}
