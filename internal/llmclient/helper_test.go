package llmclient

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/gridpoint/internal/config"
)

// setupTestLogger returns a logger and the observer capturing its output.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func getValidModelConfig(provider config.ModelProvider) config.ModelConfig {
	return config.ModelConfig{
		Provider:    provider,
		APIKey:      "test-api-key",
		Model:       "test-model",
		APITimeout:  5 * time.Second,
		Temperature: 0,
	}
}

// testPNG starts with the PNG signature; clients forward it without decoding.
var testPNG = []byte("\x89PNG\r\n\x1a\nfake")
