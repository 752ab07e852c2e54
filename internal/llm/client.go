package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"kofa_admin/internal/config"

	openrouter "github.com/revrost/go-openrouter"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("llm is not configured")
	ErrEmptyResponse = errors.New("llm returned empty response")
)

type ToolCall = openrouter.ToolCall

type Client struct {
	client  *openrouter.Client
	model   string
	logger  *zap.Logger
	enabled bool
}

// NewClient returns a disabled client when the model or key is missing, so
// callers can fall back to the backend assistant.
func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	logger = logger.Named("llm")
	model := strings.TrimSpace(cfg.LLMModel)
	apiKey := strings.TrimSpace(cfg.LLMAPIKey)

	if model == "" || apiKey == "" {
		logger.Debug("llm assistant disabled",
			zap.Bool("has_model", model != ""),
			zap.Bool("has_api_key", apiKey != ""),
		)
		return &Client{model: model, logger: logger}
	}

	clientCfg := openrouter.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.LLMBaseURL); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &Client{
		client:  openrouter.NewClientWithConfig(*clientCfg),
		model:   model,
		logger:  logger,
		enabled: true,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Complete sends the conversation with the given tools and returns the first
// choice.
func (c *Client) Complete(ctx context.Context, messages []openrouter.ChatCompletionMessage, tools []openrouter.Tool) (openrouter.ChatCompletionMessage, error) {
	if !c.Enabled() || c.client == nil {
		return openrouter.ChatCompletionMessage{}, ErrNotConfigured
	}

	resp, err := c.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return openrouter.ChatCompletionMessage{}, err
	}
	c.logUsage(resp)
	if len(resp.Choices) == 0 {
		return openrouter.ChatCompletionMessage{}, ErrEmptyResponse
	}
	return resp.Choices[0].Message, nil
}

func (c *Client) logUsage(resp openrouter.ChatCompletionResponse) {
	if resp.Usage == nil {
		return
	}
	c.logger.Info("llm usage",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Float64("cost", resp.Usage.Cost),
	)
}
