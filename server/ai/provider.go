package ai

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	pluginai "github.com/hrygo/botgpt/plugin/ai"
	"github.com/hrygo/botgpt/server/internal/errors"
)

// Config holds the model provider configuration.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "https://api.groq.com/openai/v1",
		APIKey:    "",
		Model:     "llama-3.1-8b-instant",
		MaxTokens: 1000,
		Timeout:   60 * time.Second,
	}
}

// Provider calls an OpenAI-compatible chat completion endpoint.
type Provider struct {
	client *openai.Client
	config *Config
	logger *slog.Logger
}

// NewProvider creates a new model provider.
func NewProvider(cfg *Config) *Provider {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Apply defaults for unset values
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for call diagnostics.
func (p *Provider) WithLogger(logger *slog.Logger) *Provider {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Model returns the configured model identifier.
func (p *Provider) Model() string {
	return p.config.Model
}

// Call sends messages to the model and normalizes the response.
// Every failure, including timeouts and cancellation, is a *errors.ProviderError.
func (p *Provider) Call(ctx context.Context, messages []pluginai.Message) (*pluginai.Completion, error) {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:     p.config.Model,
		Messages:  llmMessages,
		MaxTokens: p.config.MaxTokens,
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		perr := toProviderError(err)
		p.logger.Warn("model call failed",
			"model", p.config.Model,
			"status", perr.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return nil, perr
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Provider(http.StatusOK, "", stderrors.New("empty chat response"))
	}

	p.logger.Debug("model call completed",
		"model", p.config.Model,
		"messages", len(messages),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds())

	return &pluginai.Completion{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// toProviderError maps go-openai errors onto the provider error type,
// keeping the HTTP status and raw body when a response was received.
func toProviderError(err error) *errors.ProviderError {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return errors.Provider(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return errors.Provider(reqErr.HTTPStatusCode, string(reqErr.Body), err)
	}
	return errors.Provider(0, "", err)
}

var _ pluginai.ModelClient = (*Provider)(nil)
