package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/config"
)

// NewClient is a factory function that creates a VisionClient based on the configuration.
func NewClient(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (schemas.VisionClient, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported vision provider configured: '%s'. Supported: [%s %s]",
			cfg.Provider, config.ProviderOllama, config.ProviderGemini)
	}
}
