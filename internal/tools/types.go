// In file: internal/tools/types.go

// Package tools holds the callable functions offered to the assistant: the
// claim summaries, the FEMA fetch, a calculator and a web search. Definitions
// are provider-agnostic and translated into each model API's own format.
package tools

// ToolTypeFunction is the only tool type in use.
const ToolTypeFunction = "function"

// Tool is the declaration sent to the model.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function names a tool and describes its arguments. The description is what
// the model reads when choosing a tool, so it should say when to use it.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema used for tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// ToolCall is a request from the model to run one tool.
type ToolCall struct {
	// ID matches the result back to the request. Gemini does not issue IDs,
	// so the function name is reused there.
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its arguments as a JSON object.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewFunctionTool builds a function Tool.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// noParameters is the schema for tools that take no arguments.
func noParameters() JSONSchema {
	return JSONSchema{Type: "object", Properties: map[string]*JSONSchema{}}
}
