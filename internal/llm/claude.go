package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	promptCacheBeta  = "prompt-caching-2024-07-31"
)

// ClaudeConfig holds configuration for the Claude Messages API client.
type ClaudeConfig struct {
	APIKey  string
	Model   string        // default: claude-3-5-haiku-20241022
	Timeout time.Duration // default: 60s
	BaseURL string        // default: https://api.anthropic.com/v1
}

// ClaudeClient implements ChatClient against the Anthropic Messages
// API. Calls go through a circuit breaker; transport errors are
// propagated unmodified beyond wrapping, with no retries at this layer.
type ClaudeClient struct {
	cfg            ClaudeConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// NewClaudeClient creates a new client with the given configuration.
func NewClaudeClient(cfg ClaudeConfig) *ClaudeClient {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-20241022"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &ClaudeClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker(),
	}
}

// claudeMessagesRequest is the request body for POST /v1/messages.
type claudeMessagesRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    []ContentBlock `json:"system,omitempty"`
	Messages  []Message      `json:"messages"`
}

// claudeMessagesResponse is the response body from POST /v1/messages.
type claudeMessagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      Usage  `json:"usage"`
}

// Chat sends a chat completion through the circuit breaker and returns
// the assembled response.
func (c *ClaudeClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.chat(ctx, req)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, fmt.Errorf("claude circuit breaker open: %w", err)
		}
		return nil, err
	}
	return result.(*ChatResponse), nil
}

func (c *ClaudeClient) chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	body := claudeMessagesRequest{
		Model:     model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  req.Messages,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("anthropic-beta", promptCacheBeta)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("claude returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var respData claudeMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(respData.Content) == 0 {
		return nil, fmt.Errorf("claude returned empty content")
	}

	var sb strings.Builder
	for _, block := range respData.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &ChatResponse{
		Text:       sb.String(),
		StopReason: respData.StopReason,
		Usage:      respData.Usage,
	}, nil
}

// Model returns the configured model name.
func (c *ClaudeClient) Model() string {
	return c.cfg.Model
}

// Compile-time assertion.
var _ ChatClient = (*ClaudeClient)(nil)
