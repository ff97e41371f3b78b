package llmclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/config"
	"github.com/xkilldash9x/gridpoint/internal/network"
)

// GeminiClient implements schemas.VisionClient using the Gemini API.
type GeminiClient struct {
	client *genai.Client
	logger *zap.Logger
	config config.ModelConfig
}

// NewGeminiClient initializes the client. Endpoint, when set, replaces the
// public API base URL.
func NewGeminiClient(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API Key is required")
	}

	httpCfg, err := network.ClientConfigFromModel(cfg, logger)
	if err != nil {
		return nil, err
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: network.NewClient(httpCfg),
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: cfg,
		logger: logger.Named("llm_client.gemini"),
	}, nil
}

// Generate sends the prompt and image as a single user turn.
func (c *GeminiClient) Generate(ctx context.Context, req schemas.VisionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	mime := req.MIMEType
	if mime == "" {
		mime = "image/png"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		genai.NewPartFromBytes(req.Image, mime),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.config.Temperature),
	}
	if c.config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(c.config.MaxTokens)
	}

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini API blocked the request (Reason: %s)", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("gemini API returned no candidates")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini API returned empty content (Reason: %s)", resp.Candidates[0].FinishReason)
	}

	fields := []zap.Field{
		zap.String("model", model),
		zap.Duration("duration", time.Since(startTime)),
	}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
			zap.Int32("total_tokens", u.TotalTokenCount),
		)
	}
	c.logger.Info("Vision generation complete (Gemini)", fields...)

	return text, nil
}

// Close is a no-op; the genai client holds no resources that need releasing.
func (c *GeminiClient) Close() error { return nil }
