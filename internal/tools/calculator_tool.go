// In file: internal/tools/calculator_tool.go
package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// CalculatorTool does the arithmetic the model should not do in its head,
// such as ratios between two summary figures.
type CalculatorTool struct{}

var _ ToolExecutor = (*CalculatorTool)(nil)

func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

// Definition asks for structured operands rather than a free-form expression,
// so nothing has to be parsed.
func (ct *CalculatorTool) Definition() Tool {
	return NewFunctionTool(
		"calculator",
		"Useful for simple math questions. Performs one arithmetic operation on two numbers. Only for math, nothing else.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"operand1": {
					Type:        "number",
					Description: "The first number in the calculation.",
				},
				"operator": {
					Type:        "string",
					Description: "One of '+', '-', '*', '/', '%' (percentage of operand2 that operand1 is) or '^' (power).",
				},
				"operand2": {
					Type:        "number",
					Description: "The second number in the calculation.",
				},
			},
			Required: []string{"operand1", "operator", "operand2"},
		},
	)
}

func (ct *CalculatorTool) Execute(_ context.Context, arguments string) (string, error) {
	var args struct {
		Operand1 float64 `json:"operand1"`
		Operand2 float64 `json:"operand2"`
		Operator string  `json:"operator"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for calculator: %w", err)
	}

	var result float64
	switch args.Operator {
	case "+":
		result = args.Operand1 + args.Operand2
	case "-":
		result = args.Operand1 - args.Operand2
	case "*", "x":
		result = args.Operand1 * args.Operand2
	case "/":
		if args.Operand2 == 0 {
			return "Error: Division by zero is not allowed.", nil
		}
		result = args.Operand1 / args.Operand2
	case "%":
		if args.Operand2 == 0 {
			return "Error: Division by zero is not allowed.", nil
		}
		result = args.Operand1 / args.Operand2 * 100
	case "^":
		result = math.Pow(args.Operand1, args.Operand2)
	default:
		return fmt.Sprintf("Error: Unsupported operator '%s'. Please use +, -, *, /, %% or ^.", args.Operator), nil
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return "Error: The result is not a finite number.", nil
	}

	return fmt.Sprintf("The result is %g.", result), nil
}
