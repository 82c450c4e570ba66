// Package trigger provides the entry nodes that start a scenario run.
package trigger

import (
	"context"
	"log/slog"
	"maps"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

const ManualIdentifier = "trigger:manual"

// ManualHandler emits the run's trigger payload, merged over any static
// "defaults" declared in the node config.
type ManualHandler struct{}

func (h *ManualHandler) Execute(_ context.Context, req *protocol.HandlerRequest) (*protocol.HandlerResult, error) {
	output := make(map[string]any)

	if defaults, ok := req.Config["defaults"].(map[string]any); ok {
		maps.Copy(output, defaults)
	}

	maps.Copy(output, req.Input)

	return protocol.Success(output), nil
}

// ManualFactory registers the manual trigger node.
type ManualFactory struct{}

func NewManualFactory() protocol.HandlerFactory {
	return &ManualFactory{}
}

func (f *ManualFactory) Definition() models.IntegrationNodeDefinition {
	return models.IntegrationNodeDefinition{
		Identifier:      ManualIdentifier,
		Name:            "Manual Trigger",
		Category:        models.CategoryTypeTrigger,
		IntegrationType: "core",
		Description:     "Starts a run with the payload supplied by the caller or the scheduler",
		Version:         "1.0.0",
		ConfigSchema: `{
			"type": "object",
			"properties": {
				"defaults": {"type": "object", "description": "Values used when the trigger payload omits them"}
			}
		}`,
		Tags: []string{"core", "trigger"},
	}
}

func (f *ManualFactory) Create(_ *slog.Logger) (protocol.Handler, error) {
	return &ManualHandler{}, nil
}
