// Package llm defines the completion interface consumed by actions, plus
// mock and HTTP-backed providers.
package llm

import "context"

// Role represents the role of a chat message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single unit of a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest encapsulates the input for the completion backend. All
// options are explicit; there are no hidden defaults.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatResponse encapsulates the output from the completion backend.
type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider defines the interface for interacting with completion backends.
// Implementations classify failures through pkg/errors so the retry layer
// can tell transient from permanent.
type Provider interface {
	// Chat sends a chat request to the backend and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
