package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/motivai/motivai-engine/internal/llm/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{Provider: "openai", APIKey: "test-key", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.SetBaseURL(srv.URL)
	return c
}

func TestCompleteReturnsRawText(t *testing.T) {
	var gotReq chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{"industry":"tech"}`}},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	})

	text, usage, err := c.Complete(context.Background(), types.CompletionRequest{
		System:      "You are a research assistant.",
		Prompt:      "Research TechCorp.",
		Temperature: 0.3,
		MaxTokens:   512,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"industry":"tech"}` {
		t.Errorf("unexpected text %q", text)
	}
	if usage.TotalTokens != 20 {
		t.Errorf("usage = %+v", usage)
	}

	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
	if gotReq.Model != "gpt-4o-mini" || gotReq.MaxTokens != 512 {
		t.Errorf("unexpected request: model=%s max_tokens=%d", gotReq.Model, gotReq.MaxTokens)
	}
}

func TestCompleteSurfacesProviderErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, _, err := c.Complete(context.Background(), types.CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("provider errors must propagate to the caller")
	}
}

func TestCompleteSurfacesTransportErrors(t *testing.T) {
	c, err := NewClient(Options{Provider: "openai", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	// Nothing listens here.
	c.SetBaseURL("http://127.0.0.1:1")

	if _, _, err := c.Complete(context.Background(), types.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("transport errors must propagate to the caller")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{Provider: "openai"}); err == nil {
		t.Fatal("openai provider without API key must fail")
	}
	// Custom endpoints (local models) may run without a key.
	if _, err := NewClient(Options{Provider: "custom", BaseURL: "http://localhost:11434/v1"}); err != nil {
		t.Fatalf("custom provider without key: %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	if _, _, err := c.Complete(context.Background(), types.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("empty choices must be an error")
	}
}
