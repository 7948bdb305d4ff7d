package types

// CompletionRequest describes one text-generation call.
type CompletionRequest struct {
	Model       string  `json:"model,omitempty"` // empty = provider default
	System      string  `json:"system"`          // system prompt
	Prompt      string  `json:"prompt"`          // user prompt
	Temperature float64 `json:"temperature"`     // lower for structured output, higher for creative text
	MaxTokens   int     `json:"max_tokens"`      // bounds cost and latency
}

// Usage tracks token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
