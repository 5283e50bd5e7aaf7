package llm

import "context"

// Chat roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams carries per-call overrides. Nil fields use the
// backend's configured defaults.
type GenerationParams struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float32 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// LLMClient defines the standard interface for any chat-completion backend.
//
// Implementations perform one synchronous, non-streaming request per call
// and return the text of the first choice. Failures are reported as *Error
// so callers can classify them without knowing the provider.
type LLMClient interface {
	Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error)
}
