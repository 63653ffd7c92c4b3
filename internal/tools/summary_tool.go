// In file: internal/tools/summary_tool.go
package tools

import (
	"context"

	"github.com/dileep-u-k/femachat/internal/claims"
	"github.com/dileep-u-k/femachat/internal/summary"
)

// TableSource hands out the claims table a tool should read. *claims.Store
// satisfies it; the table is resolved on every call so a refetch is picked up.
type TableSource interface {
	Table() *claims.Table
}

var _ TableSource = (*claims.Store)(nil)

// SummaryTool exposes one summary operation. It takes no arguments and always
// answers with a sentence: failures come back as "Error: ..." text so the
// model can relay them.
type SummaryTool struct {
	op     summary.Operation
	source TableSource
}

var _ ToolExecutor = (*SummaryTool)(nil)

func NewSummaryTool(op summary.Operation, source TableSource) *SummaryTool {
	return &SummaryTool{op: op, source: source}
}

func (st *SummaryTool) Definition() Tool {
	return NewFunctionTool(st.op.Name, st.op.Description, noParameters())
}

// Title is the human-facing name of the summary.
func (st *SummaryTool) Title() string {
	return st.op.Title
}

func (st *SummaryTool) Execute(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := st.op.Run(st.source.Table())
	if err != nil {
		return summary.RenderError(err), nil
	}
	return text, nil
}

// SummaryTools builds one tool per summary operation, in presentation order.
func SummaryTools(source TableSource) []*SummaryTool {
	out := make([]*SummaryTool, len(summary.Operations))
	for i, op := range summary.Operations {
		out[i] = NewSummaryTool(op, source)
	}
	return out
}
