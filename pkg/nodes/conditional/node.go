// Package conditional provides the two-way branching node.
package conditional

import (
	"context"
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"

	"github.com/dukex/scenarios/pkg/protocol"
)

const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

// Handler evaluates an expr-lang condition and declares the "true" or "false" branch.
type Handler struct{}

// Execute evaluates the condition against input, trigger and nodes.
func (h *Handler) Execute(_ context.Context, req *protocol.HandlerRequest) (*protocol.HandlerResult, error) {
	condition, ok := req.Config["condition"].(string)
	if !ok || condition == "" {
		return protocol.Failure("missing required field 'condition'"), nil
	}

	env := map[string]any{
		"input":   req.Input,
		"trigger": req.Trigger,
		"nodes":   req.Nodes,
	}

	program, err := expr.Compile(condition, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return protocol.Failure(fmt.Sprintf("condition compilation failed: %v", err)), nil
	}

	value, err := expr.Run(program, env)
	if err != nil {
		return protocol.Failure(fmt.Sprintf("condition evaluation failed: %v", err)), nil
	}

	isTrue := evaluateCondition(value)

	branch := BranchFalse
	if isTrue {
		branch = BranchTrue
	}

	output := make(map[string]any, len(req.Input)+2)
	for k, v := range req.Input {
		output[k] = v
	}

	output["condition_result"] = isTrue
	output["evaluated_value"] = value

	return protocol.Success(output).WithBranch(branch), nil
}

// evaluateCondition converts various types to boolean.
func evaluateCondition(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}

		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0.0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return false
	}
}
