// In file: internal/llm/gemini_client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dileep-u-k/femachat/internal/logger"
	"github.com/dileep-u-k/femachat/internal/tools"

	"github.com/goccy/go-json"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// geminiToolCallPrefix prefixes the IDs given to Gemini function calls, which
// carry no ID of their own.
const geminiToolCallPrefix = "gemini-toolcall-"

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey string
	// Model defaults to DefaultGeminiModel.
	Model string
	// SafetyThreshold is applied to every harm category; see ParseHarmThreshold.
	SafetyThreshold string
}

// GeminiClient talks to Google's Gemini models. A fresh GenerativeModel is
// configured for every call, so one client is safe for concurrent use.
type GeminiClient struct {
	client *genai.Client
	model  string
	safety []*genai.SafetySetting
}

var _ LLMClient = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	threshold, err := ParseHarmThreshold(opts.SafetyThreshold)
	if err != nil {
		return nil, err
	}
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  model,
		safety: safetySettings(threshold),
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Generate runs one chat turn. Messages before the final user turn become the
// chat history; the final turn (a prompt or a batch of tool results) is sent.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	conv, err := toGeminiConversation(messages)
	if err != nil {
		return nil, err
	}

	modelID := c.model
	if config != nil && config.Model != "" {
		modelID = config.Model
	}
	model := c.client.GenerativeModel(modelID)
	model.SafetySettings = c.safety
	model.SystemInstruction = conv.system
	configureModel(model, config, availableTools)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	chat := model.StartChat()
	chat.History = conv.history
	resp, err := chat.SendMessage(ctx, conv.pending...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return nil, fmt.Errorf("gemini blocked the response: %w", err)
		}
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(resp)
}

// configureModel applies the generation settings through the SDK setters.
func configureModel(model *genai.GenerativeModel, config *GenerationConfig, availableTools []tools.Tool) {
	temperature := DefaultTemperature
	maxTokens := DefaultMaxTokens
	if config != nil {
		if config.Temperature != nil {
			temperature = *config.Temperature
		}
		if config.TopP != nil {
			model.SetTopP(*config.TopP)
		}
		if config.MaxTokens > 0 {
			maxTokens = config.MaxTokens
		}
	}
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))

	if len(availableTools) > 0 {
		model.Tools = toGeminiTools(availableTools)
	}
}

// ParseHarmThreshold maps a threshold name such as "BLOCK_ONLY_HIGH" to the
// SDK value. The empty string selects DefaultSafetyThreshold.
func ParseHarmThreshold(name string) (genai.HarmBlockThreshold, error) {
	if name == "" {
		name = DefaultSafetyThreshold
	}
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BLOCK_NONE":
		return genai.HarmBlockNone, nil
	case "BLOCK_ONLY_HIGH":
		return genai.HarmBlockOnlyHigh, nil
	case "BLOCK_MEDIUM_AND_ABOVE":
		return genai.HarmBlockMediumAndAbove, nil
	case "BLOCK_LOW_AND_ABOVE":
		return genai.HarmBlockLowAndAbove, nil
	}
	return genai.HarmBlockUnspecified, fmt.Errorf("unknown safety threshold %q", name)
}

func safetySettings(threshold genai.HarmBlockThreshold) []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
	}
	settings := make([]*genai.SafetySetting, len(categories))
	for i, cat := range categories {
		settings[i] = &genai.SafetySetting{Category: cat, Threshold: threshold}
	}
	return settings
}

// toGeminiTools puts every declaration in a single genai.Tool.
func toGeminiTools(toolsToConvert []tools.Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(toolsToConvert))
	for _, t := range toolsToConvert {
		decl := &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
		}
		// Gemini rejects an object schema without properties.
		if len(t.Function.Parameters.Properties) > 0 {
			decl.Parameters = convertSchema(t.Function.Parameters)
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func convertSchema(s tools.JSONSchema) *genai.Schema {
	genaiSchema := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		genaiSchema.Type = genai.TypeObject
	case "string":
		genaiSchema.Type = genai.TypeString
	case "number":
		genaiSchema.Type = genai.TypeNumber
	case "integer":
		genaiSchema.Type = genai.TypeInteger
	case "boolean":
		genaiSchema.Type = genai.TypeBoolean
	case "array":
		genaiSchema.Type = genai.TypeArray
	}
	if s.Properties != nil {
		genaiSchema.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			genaiSchema.Properties[k] = convertSchema(*v)
		}
	}
	return genaiSchema
}

type geminiConversation struct {
	system  *genai.Content
	history []*genai.Content
	pending []genai.Part
}

// toGeminiConversation maps messages onto Gemini's two roles. System
// messages become the system instruction, assistant tool calls become model
// FunctionCall parts and tool results become user FunctionResponse parts.
// Adjacent messages with the same role are merged into one turn.
func toGeminiConversation(messages []Message) (*geminiConversation, error) {
	var (
		system []string
		turns  []*genai.Content
	)
	appendParts := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Parts = append(turns[n-1].Parts, parts...)
			return
		}
		turns = append(turns, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleUser:
			appendParts("user", genai.Text(msg.Content))
		case RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := map[string]any{}
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						return nil, fmt.Errorf("tool call %s has invalid arguments: %w", tc.Function.Name, err)
					}
				}
				parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
			}
			appendParts("model", parts...)
		case RoleTool:
			name := msg.Name
			if name == "" {
				name = strings.TrimPrefix(msg.ToolCallID, geminiToolCallPrefix)
			}
			appendParts("user", genai.FunctionResponse{
				Name:     name,
				Response: map[string]any{"content": msg.Content},
			})
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return nil, errors.New("conversation must end with a user or tool message")
	}

	conv := &geminiConversation{
		history: turns[:len(turns)-1],
		pending: turns[len(turns)-1].Parts,
	}
	if len(system) > 0 {
		conv.system = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	return conv, nil
}

// parseGeminiResponse converts the first candidate into a GenerationResult.
func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	candidate := resp.Candidates[0]
	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall

	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			contentBuilder.WriteString(string(v))
		case genai.FunctionCall:
			argMap := v.Args
			if argMap == nil {
				argMap = map[string]any{}
			}
			args, err := json.Marshal(argMap)
			if err != nil {
				logger.Warn("Could not marshal Gemini tool call args", zap.String("tool", v.Name), zap.Error(err))
				continue
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   geminiToolCallPrefix + v.Name,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(args),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
	}
	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}
