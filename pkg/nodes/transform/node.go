// Package transform provides the template based data transformation node.
package transform

import (
	"context"
	"fmt"

	"github.com/dukex/scenarios/pkg/protocol"
	"github.com/dukex/scenarios/pkg/template"
)

// Handler executes transform nodes.
type Handler struct{}

// Execute performs data transformation using Go templates. Object results
// become the node output; anything else is wrapped under "result".
func (h *Handler) Execute(_ context.Context, req *protocol.HandlerRequest) (*protocol.HandlerResult, error) {
	expression, ok := req.Config["expression"].(string)
	if !ok {
		return protocol.Failure("missing required field 'expression'"), nil
	}

	result, err := template.RenderWithContext(expression, req.TemplateContext())
	if err != nil {
		return protocol.Failure(fmt.Sprintf("transformation failed: %v", err)), nil
	}

	if output, ok := result.(map[string]any); ok {
		return protocol.Success(output), nil
	}

	return protocol.Success(map[string]any{"result": result}), nil
}
