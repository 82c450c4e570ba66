// Package switchnode provides the multi-way branching node.
package switchnode

import (
	"context"
	"fmt"

	"github.com/dukex/scenarios/pkg/protocol"
	"github.com/dukex/scenarios/pkg/template"
)

// BranchOtherwise is declared when no case matches. Unlabelled edges are
// always followed, so the fallback path needs a label of its own.
const BranchOtherwise = "otherwise"

// Handler renders a value and declares the branch of the first matching case,
// or BranchOtherwise when nothing matches.
type Handler struct{}

// Case maps a rendered value to a branch label.
type Case struct {
	Value  string `json:"value"`
	Branch string `json:"branch"`
}

func parseCases(config map[string]any) ([]Case, error) {
	casesConfig, ok := config["cases"].([]any)
	if !ok {
		return nil, nil
	}

	cases := make([]Case, 0, len(casesConfig))

	for i, caseAny := range casesConfig {
		caseMap, ok := caseAny.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("case %d must be an object", i)
		}

		value, ok := caseMap["value"].(string)
		if !ok {
			return nil, fmt.Errorf("case %d missing 'value'", i)
		}

		branch, ok := caseMap["branch"].(string)
		if !ok {
			branch = value
		}

		cases = append(cases, Case{Value: value, Branch: branch})
	}

	return cases, nil
}

// Execute evaluates the value and routes to the matching branch.
func (h *Handler) Execute(_ context.Context, req *protocol.HandlerRequest) (*protocol.HandlerResult, error) {
	valueExpr, ok := req.Config["value"].(string)
	if !ok {
		return protocol.Failure("missing required field 'value'"), nil
	}

	cases, err := parseCases(req.Config)
	if err != nil {
		return protocol.Failure(err.Error()), nil
	}

	rendered, err := template.RenderWithContext(valueExpr, req.TemplateContext())
	if err != nil {
		return protocol.Failure(fmt.Sprintf("value evaluation failed: %v", err)), nil
	}

	value := fmt.Sprintf("%v", rendered)

	output := make(map[string]any, len(req.Input)+2)
	for k, v := range req.Input {
		output[k] = v
	}

	output["matched_value"] = value

	for _, c := range cases {
		if c.Value == value {
			output["branch"] = c.Branch

			return protocol.Success(output).WithBranch(c.Branch), nil
		}
	}

	output["branch"] = BranchOtherwise
	output["no_match"] = true

	return protocol.Success(output).WithBranch(BranchOtherwise), nil
}
