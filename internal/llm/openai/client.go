// Package openai implements the completion client against the OpenAI
// chat-completions API and any OpenAI-compatible endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/motivai/motivai-engine/internal/llm/types"
	"github.com/motivai/motivai-engine/internal/metrics"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 2048
	DefaultTimeout   = 120 * time.Second
)

// Options configures a Client.
type Options struct {
	Provider  string // "openai" or "custom"; recorded in artifact provenance
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// Client calls the chat-completions endpoint.
type Client struct {
	provider   string
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
}

// Chat-completions wire structures.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewClient creates a chat-completions client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" && opts.Provider != "custom" {
		return nil, fmt.Errorf("API key is required for provider %q", opts.Provider)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Provider == "" {
		opts.Provider = "openai"
	}

	return &Client{
		provider:  opts.Provider,
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		baseURL:   opts.BaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}, nil
}

// Provider returns the provider identifier.
func (c *Client) Provider() string { return c.provider }

// Model returns the default model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends a chat-completion request and returns the raw text of the
// first choice. Network and provider errors propagate to the caller.
func (c *Client) Complete(ctx context.Context, req types.CompletionRequest) (string, types.Usage, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	request := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	start := time.Now()
	body, err := c.makeRequest(ctx, "/chat/completions", request)
	metrics.LLMRequestDuration.WithLabelValues(c.provider, model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		return "", types.Usage{}, fmt.Errorf("completion request failed: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		return "", types.Usage{}, fmt.Errorf("parse completion response: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		return "", types.Usage{}, fmt.Errorf("no choices in completion response")
	}

	usage := types.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, "ok").Inc()
	metrics.LLMTokensTotal.WithLabelValues(c.provider, model, "input").Add(float64(usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(c.provider, model, "output").Add(float64(usage.CompletionTokens))

	return resp.Choices[0].Message.Content, usage, nil
}

// makeRequest POSTs payload to the endpoint and returns the response body.
func (c *Client) makeRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider error (status %d): %s", resp.StatusCode, string(responseBody))
	}
	return responseBody, nil
}

// SetBaseURL overrides the API base URL. Used in tests.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }
