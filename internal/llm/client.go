// In file: internal/llm/client.go

// Package llm is the model-facing side of the assistant: a provider-neutral
// conversation format and the Gemini client that speaks it.
package llm

import (
	"context"

	"github.com/dileep-u-k/femachat/internal/tools"
)

// Role is the originator of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name and ToolCallID identify the call a RoleTool message answers.
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig controls a single generation. Nil pointers and zero values
// fall back to the client's defaults.
type GenerationConfig struct {
	Model       string
	Temperature *float32
	MaxTokens   int
	TopP        *float32
}

// Usage reports token counts for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates u2 into u.
func (u *Usage) Add(u2 Usage) {
	u.PromptTokens += u2.PromptTokens
	u.CompletionTokens += u2.CompletionTokens
	u.TotalTokens += u2.TotalTokens
}

// GenerationResult is the complete output of one model call.
type GenerationResult struct {
	Content   string
	ToolCalls []*tools.ToolCall
	Usage     Usage
}

// LLMClient is implemented by every model backend.
type LLMClient interface {
	// Generate sends the whole conversation and returns the model's next turn,
	// which is either text or a set of tool calls.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
