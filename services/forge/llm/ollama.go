package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/codesmith-ai/codesmith/services/forge/ir"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "qwen2.5-coder:7b"
)

// OllamaClient talks to a local Ollama server.
type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// OllamaOption configures an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithOllamaURL sets the server address.
func WithOllamaURL(url string) OllamaOption {
	return func(c *OllamaClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithOllamaModel sets the model name.
func WithOllamaModel(model string) OllamaOption {
	return func(c *OllamaClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithOllamaLogger sets the structured logger.
func WithOllamaLogger(l *slog.Logger) OllamaOption {
	return func(c *OllamaClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewOllamaClient creates a client for a local Ollama server.
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		baseURL: defaultOllamaURL,
		model:   defaultOllamaModel,
		http:    &http.Client{Timeout: 120 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// GenerateIR formalizes a description into a requirement record.
func (c *OllamaClient) GenerateIR(ctx context.Context, req IRRequest) (*ir.IR, error) {
	raw, err := c.generate(ctx, irSystemPrompt, BuildIRPrompt(req.Description), req.Temperature)
	if err != nil {
		return nil, err
	}
	return decodeIR(raw)
}

// GenerateCode produces candidate source for the record.
func (c *OllamaClient) GenerateCode(ctx context.Context, req CodeRequest) (string, error) {
	raw, err := c.generate(ctx, codeSystemPrompt, BuildCodePrompt(req), req.Temperature)
	if err != nil {
		return "", err
	}
	source := StripFences(raw)
	if source == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformed)
	}
	return source, nil
}

func (c *OllamaClient) generate(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(ollamaRequest{
		Model:   c.model,
		Prompt:  prompt,
		System:  system,
		Stream:  false,
		Options: map[string]any{"temperature": temperature},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &TransientError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{Err: err}
	}
	if resp.StatusCode >= 500 {
		return "", &TransientError{Err: fmt.Errorf("ollama returned %d: %s", resp.StatusCode, data)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, data)
	}

	var out ollamaResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	c.logger.Debug("completion received", "model", c.model, "bytes", len(out.Response))
	return out.Response, nil
}
