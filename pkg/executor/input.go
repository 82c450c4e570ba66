package executor

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dukex/scenarios/pkg/mapping"
	"github.com/dukex/scenarios/pkg/template"
)

func (r *run) templateContext(nodeID string, input map[string]any) *template.Context {
	return &template.Context{
		ScenarioID: r.ref.ScenarioID,
		RunID:      r.ref.RunID,
		NodeID:     nodeID,
		Input:      maps.Clone(input),
		Trigger:    r.trigger,
		Nodes:      r.nodeOutputs(),
	}
}

// applyInputMapping renders each templated value against the run context and
// assigns it to its dotted target path. Non-string values are assigned as is.
// Targets are processed in sorted order so that nested paths resolve stably.
func applyInputMapping(inputMapping map[string]any, input map[string]any, runCtx *template.Context) error {
	for _, target := range slices.Sorted(maps.Keys(inputMapping)) {
		value := inputMapping[target]

		if text, ok := value.(string); ok && template.NeedsTemplating(text) {
			rendered, err := template.RenderWithContext(text, runCtx)
			if err != nil {
				return fmt.Errorf("input mapping %s: %w", target, err)
			}

			value = rendered
		}

		mapping.Assign(input, target, value)
	}

	return nil
}
