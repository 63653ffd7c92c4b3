// In file: internal/tools/executor.go
package tools

import "context"

// ToolExecutor is implemented by every tool the assistant can call.
type ToolExecutor interface {
	// Definition is the declaration given to the model.
	Definition() Tool

	// Execute runs the tool with the model-supplied JSON arguments. Failures
	// the model can act on are returned as text; the error is reserved for
	// malformed arguments and broken plumbing.
	Execute(ctx context.Context, arguments string) (string, error)
}
