package llmclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/config"
	"github.com/xkilldash9x/gridpoint/internal/network"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultOllamaEndpoint is the address of a local Ollama daemon.
const DefaultOllamaEndpoint = "http://localhost:11434"

// OllamaClient implements schemas.VisionClient against the Ollama chat API.
type OllamaClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	config     config.ModelConfig
}

// -- Ollama API Request/Response Structures (Internal to this file) --

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

type ollamaErrorResponse struct {
	Error string `json:"error"`
}

// NewOllamaClient initializes the client. An empty endpoint means the local daemon.
func NewOllamaClient(cfg config.ModelConfig, logger *zap.Logger) (*OllamaClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model name is required")
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	httpCfg, err := network.ClientConfigFromModel(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &OllamaClient{
		endpoint:   endpoint,
		config:     cfg,
		httpClient: network.NewClient(httpCfg),
		logger:     logger.Named("llm_client.ollama"),
	}, nil
}

// DefaultOllamaNumPredict caps generation when model.max_tokens is unset. A
// cell number needs only a handful of tokens.
const DefaultOllamaNumPredict = 16

func (c *OllamaClient) numPredict() int {
	if c.config.MaxTokens > 0 {
		return c.config.MaxTokens
	}
	return DefaultOllamaNumPredict
}

// Generate sends one chat turn carrying the prompt and the image. A single
// attempt is made; the caller decides what a failure means.
func (c *OllamaClient) Generate(ctx context.Context, req schemas.VisionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	payload := ollamaChatRequest{
		Model: model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: req.Prompt,
			Images:  []string{base64.StdEncoding.EncodeToString(req.Image)},
		}},
		Stream: false,
		Options: ollamaOptions{
			Temperature: c.config.Temperature,
			NumPredict:  c.numPredict(),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", c.handleAPIError(resp.StatusCode, respBody)
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to decode response payload: %w", err)
	}

	c.logger.Info("Vision generation complete (Ollama)",
		zap.String("model", model),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("prompt_tokens", out.PromptEvalCount),
		zap.Int("completion_tokens", out.EvalCount),
	)
	return out.Message.Content, nil
}

func (c *OllamaClient) handleAPIError(status int, body []byte) error {
	var apiErr ollamaErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("ollama API error (status %d): %s", status, apiErr.Error)
	}
	return fmt.Errorf("ollama API error (status %d): %s", status, strings.TrimSpace(string(body)))
}

// Close releases idle connections.
func (c *OllamaClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
