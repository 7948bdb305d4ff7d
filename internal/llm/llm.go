// Package llm wraps the external text-generation capability behind a single
// provider-agnostic interface.
//
// The client returns the provider's raw text and does not validate its
// structure; parsing is the calling stage's responsibility. Transport and
// provider errors are the one class of error that must surface to callers,
// so stages above can choose their own fallback policy.
package llm

import (
	"context"
	"fmt"

	"github.com/motivai/motivai-engine/internal/config"
	"github.com/motivai/motivai-engine/internal/llm/openai"
	"github.com/motivai/motivai-engine/internal/llm/types"
)

// Client is the generative completion boundary.
type Client interface {
	// Complete returns the raw completion text for the request.
	Complete(ctx context.Context, req types.CompletionRequest) (string, types.Usage, error)

	// Provider returns the provider identifier ("openai", "custom").
	Provider() string

	// Model returns the default model identifier.
	Model() string
}

// New builds a completion client from configuration. "custom" selects any
// OpenAI-compatible endpoint (vLLM, LocalAI, Ollama's compat API) via
// llm.base_url.
func New(cfg *config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case "openai", "custom":
		return openai.NewClient(openai.Options{
			Provider:  cfg.LLM.Provider,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			BaseURL:   cfg.LLM.BaseURL,
			MaxTokens: cfg.LLM.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.LLM.Provider)
	}
}
