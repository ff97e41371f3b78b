package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/config"
)

// ModelInvocationError wraps any failure raised while calling the vision model,
// including panics inside the client. The pipeline treats it as recoverable.
type ModelInvocationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed (%s/%s): %v", e.Provider, e.Model, e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// Gateway is the single entry point the pipeline uses to ask the model a
// question about an image. It makes exactly one attempt per call.
type Gateway struct {
	client   schemas.VisionClient
	provider string
	model    string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewGateway wraps client with the provider and model recorded in cfg.
func NewGateway(client schemas.VisionClient, cfg config.ModelConfig, logger *zap.Logger) *Gateway {
	return &Gateway{
		client:   client,
		provider: string(cfg.Provider),
		model:    cfg.Model,
		timeout:  cfg.APITimeout,
		logger:   logger.Named("model_gateway"),
	}
}

// Ask sends the PNG-encoded image and prompt to the model and returns the
// trimmed answer. Every failure comes back as a *ModelInvocationError.
func (g *Gateway) Ask(ctx context.Context, png []byte, prompt string) (answer string, err error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Vision client panicked", zap.Any("panic", r))
			answer = ""
			err = g.wrap(fmt.Errorf("panic: %v", r))
		}
	}()

	g.logger.Debug("Querying vision model",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Int("image_bytes", len(png)),
	)

	raw, err := g.client.Generate(ctx, schemas.VisionRequest{
		Model:    g.model,
		Prompt:   prompt,
		Image:    png,
		MIMEType: "image/png",
	})
	if err != nil {
		return "", g.wrap(err)
	}

	answer = strings.TrimSpace(raw)
	g.logger.Info("Model answered", zap.String("answer", answer))
	return answer, nil
}

// Close releases the underlying client.
func (g *Gateway) Close() error { return g.client.Close() }

func (g *Gateway) wrap(err error) *ModelInvocationError {
	return &ModelInvocationError{Provider: g.provider, Model: g.model, Err: err}
}
