// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI GPT-4o, Anthropic
// Claude, or a local Ollama instance) and exposes a single blocking completion call
// so that the dialogue orchestrator and the game judge do not couple to any SDK.
//
// Implementors must be safe for concurrent use and must return promptly when the
// supplied context is cancelled. Implementations must not retry a completion on
// their own: a repeated chat turn could be appended to a session twice.
package llm

import "context"

// Role values accepted in [Message.Role].
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged entry in an LLM conversation.
type Message struct {
	// Role is one of [RoleSystem], [RoleUser], or [RoleAssistant].
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. System messages, if any, come first.
	Messages []Message

	// Temperature controls output randomness in the range [0.0, 2.0].
	// Nil means use the provider default; an explicit 0 is sent as is.
	Temperature *float64

	// TopP is the nucleus-sampling probability mass in (0.0, 1.0].
	// Nil means use the provider default.
	TopP *float64

	// MaxTokens caps the number of completion tokens. Zero means provider default.
	MaxTokens int

	// JSONMode asks the provider to constrain the output to a single JSON object.
	// Providers without native support ignore it; callers must still parse
	// defensively.
	JSONMode bool
}

// CompletionResponse is returned by [Provider.Complete].
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// FinishReason reports why generation stopped ("stop", "length", ...).
	FinishReason string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// ModelCapabilities describes static limits of the configured model.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one completion.
	MaxOutputTokens int

	// SupportsJSONMode indicates native JSON-object output support.
	SupportsJSONMode bool
}

// Float returns a pointer to v, for the optional sampling fields of
// [CompletionRequest].
func Float(v float64) *float64 { return &v }

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or ctx is cancelled first.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Capabilities returns static metadata about the underlying model. The result
	// is constant for the lifetime of the Provider.
	Capabilities() ModelCapabilities
}
