package domain

// Role constants for conversation message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions carries optional generation parameters for a chat call.
// Zero values mean "let the provider decide".
type ChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// ChatResult is the normalized outcome of a non-streaming chat call.
// Content is always a string; providers that return no usable text yield "".
type ChatResult struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   *Usage `json:"usage,omitempty"`
}

// Usage tracks token consumption. Best-effort: not every provider reports it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk is a single increment of a streamed response. The final chunk
// of every stream has Done set and empty Content.
type StreamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// TestResult reports the outcome of a provider connectivity self-test.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
