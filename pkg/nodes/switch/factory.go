package switchnode

import (
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

const Identifier = "switch"

// Factory registers the switch node.
type Factory struct{}

func NewFactory() protocol.HandlerFactory {
	return &Factory{}
}

func (f *Factory) Definition() models.IntegrationNodeDefinition {
	return models.IntegrationNodeDefinition{
		Identifier:      Identifier,
		Name:            "Switch",
		Category:        models.CategoryTypeLogic,
		IntegrationType: "core",
		Description:     "Routes the run to the branch of the case matching a templated value",
		Version:         "1.0.0",
		ConfigSchema: `{
			"type": "object",
			"properties": {
				"value": {
					"type": "string",
					"description": "Go template rendered against the run context",
					"examples": ["{{.input.plan}}"]
				},
				"cases": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"value": {"type": "string"},
							"branch": {"type": "string"}
						},
						"required": ["value"]
					}
				}
			},
			"required": ["value"]
		}`,
		Tags: []string{"core", "flow"},
	}
}

func (f *Factory) Create(_ *slog.Logger) (protocol.Handler, error) {
	return &Handler{}, nil
}
