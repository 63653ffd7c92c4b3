// In file: internal/tools/manager.go
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ToolManager is the registry of tools offered to the assistant.
type ToolManager struct {
	mu    sync.RWMutex
	tools map[string]ToolExecutor
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds tool, replacing any tool with the same name.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	tm.mu.Lock()
	tm.tools[name] = tool
	tm.mu.Unlock()
}

// GetDefinitions returns every registered definition, sorted by name so the
// model sees a stable tool list.
func (tm *ToolManager) GetDefinitions() []Tool {
	tm.mu.RLock()
	defs := make([]Tool, 0, len(tm.tools))
	for _, tool := range tm.tools {
		defs = append(defs, tool.Definition())
	}
	tm.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].Function.Name < defs[j].Function.Name })
	return defs
}

// Lookup returns the tool registered under name.
func (tm *ToolManager) Lookup(name string) (ToolExecutor, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	tool, ok := tm.tools[name]
	return tool, ok
}

// Execute runs a tool by name.
func (tm *ToolManager) Execute(ctx context.Context, name, arguments string) (string, error) {
	tool, ok := tm.Lookup(name)
	if !ok {
		return "", fmt.Errorf("tool '%s' not found", name)
	}
	return tool.Execute(ctx, arguments)
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.tools)
}
