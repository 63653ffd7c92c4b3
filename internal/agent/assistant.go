// In file: internal/agent/assistant.go

// Package agent runs the tool-calling loop between the model and the claim
// tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dileep-u-k/femachat/internal/llm"
	"github.com/dileep-u-k/femachat/internal/logger"
	"github.com/dileep-u-k/femachat/internal/tools"

	"go.uber.org/zap"
)

// MaxToolRounds bounds how many times one question may go back to the model
// with tool results.
const MaxToolRounds = 5

// SystemPrompt frames the model as an analyst over the loaded claims.
const SystemPrompt = `You are FEMAChat, an assistant that answers questions about NFIP flood insurance claims from OpenFEMA.
Claims for one zip code are loaded at a time. Use the summary tools to answer questions about the loaded claims, fetch_fema_claims to load another zip code, calculator for arithmetic and web_search for general knowledge.
Report amounts exactly as the tools return them. If a tool returns an error, tell the user what went wrong.`

// ErrTooManyToolCalls is returned when the model keeps requesting tools past
// MaxToolRounds.
var ErrTooManyToolCalls = errors.New("exceeded maximum number of tool calls")

// noAnswer stands in for an empty final turn from the model.
const noAnswer = "I could not find an answer to that question."

// Assistant answers questions with an LLM that can call the registered tools.
type Assistant struct {
	client llm.LLMClient
	tools  *tools.ToolManager
	config *llm.GenerationConfig
	system string
}

func NewAssistant(client llm.LLMClient, toolManager *tools.ToolManager, config *llm.GenerationConfig) (*Assistant, error) {
	if client == nil {
		return nil, errors.New("assistant needs an LLM client")
	}
	if toolManager == nil {
		return nil, errors.New("assistant needs a tool manager")
	}
	return &Assistant{client: client, tools: toolManager, config: config, system: SystemPrompt}, nil
}

// Answer is the outcome of one question.
type Answer struct {
	Content   string    `json:"content"`
	ToolsUsed []string  `json:"tools_used,omitempty"`
	Usage     llm.Usage `json:"usage"`
	// Messages is the conversation including this exchange, without the
	// system prompt. Pass it back as history for a follow-up question.
	Messages []llm.Message `json:"-"`
}

// Ask sends question after history and runs tool calls until the model
// answers in text.
func (a *Assistant) Ask(ctx context.Context, history []llm.Message, question string) (*Answer, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.system})
	for _, m := range history {
		if m.Role != llm.RoleSystem {
			messages = append(messages, m)
		}
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	answer := &Answer{}
	definitions := a.tools.GetDefinitions()
	for round := 0; round <= MaxToolRounds; round++ {
		result, err := a.client.Generate(ctx, messages, a.config, definitions)
		if err != nil {
			return nil, fmt.Errorf("LLM generation failed during tool loop: %w", err)
		}
		answer.Usage.Add(result.Usage)

		if len(result.ToolCalls) == 0 {
			answer.Content = result.Content
			if answer.Content == "" {
				answer.Content = noAnswer
			}
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: answer.Content})
			answer.Messages = messages[1:]
			logger.Debug("Assistant answered", zap.Int("rounds", round), zap.Strings("tools", answer.ToolsUsed))
			return answer, nil
		}
		if round == MaxToolRounds {
			break
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: result.Content, ToolCalls: result.ToolCalls})
		for _, call := range result.ToolCalls {
			logger.Info("Executing tool",
				zap.String("tool", call.Function.Name),
				zap.String("id", call.ID),
				zap.String("args", call.Function.Arguments))
			output, err := a.tools.Execute(ctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				output = fmt.Sprintf("Error executing tool %s: %v", call.Function.Name, err)
			}
			answer.ToolsUsed = append(answer.ToolsUsed, call.Function.Name)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    output,
			})
		}
	}
	return nil, ErrTooManyToolCalls
}

// Session is a conversation that remembers earlier questions and answers.
type Session struct {
	assistant *Assistant

	mu      sync.Mutex
	history []llm.Message
}

func NewSession(a *Assistant) *Session {
	return &Session{assistant: a}
}

// Ask answers question in the context of the session so far. A failed
// question leaves the history unchanged.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, err := s.assistant.Ask(ctx, s.history, question)
	if err != nil {
		return nil, err
	}
	s.history = answer.Messages
	return answer, nil
}

// Reset forgets the conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}
