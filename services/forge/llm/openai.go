package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIClient talks to the OpenAI chat completion API (or any compatible
// endpoint) with client-side rate limiting.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	model   string
	baseURL string
	rps     float64
	logger  *slog.Logger
}

// WithModel sets the model name.
func WithModel(model string) OpenAIOption {
	return func(c *openAIConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithRequestsPerSecond caps outbound request rate.
func WithRequestsPerSecond(rps float64) OpenAIOption {
	return func(c *openAIConfig) {
		if rps > 0 {
			c.rps = rps
		}
	}
}

// WithOpenAILogger sets the structured logger.
func WithOpenAILogger(l *slog.Logger) OpenAIOption {
	return func(c *openAIConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewOpenAIClient creates a client authenticated with apiKey.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	cfg := &openAIConfig{
		model:  defaultOpenAIModel,
		rps:    2,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	apiCfg := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		apiCfg.BaseURL = cfg.baseURL
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(apiCfg),
		model:   cfg.model,
		limiter: rate.NewLimiter(rate.Limit(cfg.rps), 1),
		logger:  cfg.logger,
	}
}

// GenerateIR formalizes a description into a requirement record.
func (c *OpenAIClient) GenerateIR(ctx context.Context, req IRRequest) (*ir.IR, error) {
	raw, err := c.complete(ctx, irSystemPrompt, BuildIRPrompt(req.Description), req.Temperature)
	if err != nil {
		return nil, err
	}
	return decodeIR(raw)
}

// GenerateCode produces candidate source for the record.
func (c *OpenAIClient) GenerateCode(ctx context.Context, req CodeRequest) (string, error) {
	raw, err := c.complete(ctx, codeSystemPrompt, BuildCodePrompt(req), req.Temperature)
	if err != nil {
		return "", err
	}
	source := StripFences(raw)
	if source == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformed)
	}
	return source, nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformed)
	}
	c.logger.Debug("completion received",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIErr separates retryable infrastructure failures from
// request errors. Anything that never reached the API, rate limiting, and
// server-side errors are transient; 4xx responses are not.
func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return &TransientError{Err: err}
		}
		return err
	}
	return &TransientError{Err: err}
}
