package types

// Chat roles accepted in a conversation. Messages with any other role are
// dropped before generation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reasons reported in a completion choice.
const (
	FinishStop  = "stop"
	FinishError = "error"
)

// ChatMessage is a single role-tagged turn in a conversation.
type ChatMessage struct {
	// Role of the sender: system, user or assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// Message text.
	// example: Write a haiku about the ocean.
	Content string `json:"content" example:"Write a haiku about the ocean."`
}

// CompletionRequest is a fully-decoded chat completion request.
// Defaults are applied during decode; the struct is not mutated afterwards.
type CompletionRequest struct {
	// Ordered conversation history.
	Messages []ChatMessage `json:"messages"`
	// Maximum number of new tokens to generate (capped internally).
	// example: 256
	MaxTokens int `json:"max_tokens" example:"256"`
	// Sampling temperature; 0 selects the deterministic path.
	// example: 0.7
	Temperature float64 `json:"temperature" example:"0.7"`
	// Optional model identifier. Empty means the already-loaded model.
	// example: openai/gpt-oss-20b
	Model string `json:"model,omitempty" example:"openai/gpt-oss-20b"`
}

// Choice is one generated alternative. This implementation always emits
// exactly one.
type Choice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason" example:"stop"`
}

// Usage contains token accounting. Prompt tokens are approximate: the input
// contents are joined with single spaces and re-tokenized, which is not the
// backend's true prompt formatting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" example:"42"`
	CompletionTokens int `json:"completion_tokens" example:"17"`
	TotalTokens      int `json:"total_tokens" example:"59"`
}

// CompletionResponse is the OpenAI-compatible response envelope written to
// stdout. Usage is omitted on the error path.
type CompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
	// Error message when generation failed; empty on success.
	Error string `json:"error,omitempty"`
}

// ErrorResponse wraps a failure as a completion envelope so every exit path
// still prints JSON, never a bare stack trace.
func ErrorResponse(err error) CompletionResponse {
	msg := err.Error()
	return CompletionResponse{
		Error: msg,
		Choices: []Choice{{
			Message:      ChatMessage{Role: RoleAssistant, Content: "Error: " + msg},
			FinishReason: FinishError,
		}},
	}
}
