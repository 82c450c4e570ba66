package conditional

import (
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

const Identifier = "conditional"

// Factory registers the conditional node.
type Factory struct{}

func NewFactory() protocol.HandlerFactory {
	return &Factory{}
}

func (f *Factory) Definition() models.IntegrationNodeDefinition {
	return models.IntegrationNodeDefinition{
		Identifier:      Identifier,
		Name:            "Conditional",
		Category:        models.CategoryTypeLogic,
		IntegrationType: "core",
		Description:     "Routes the run to the 'true' or 'false' branch based on an expression",
		Version:         "1.0.0",
		ConfigSchema: `{
			"type": "object",
			"properties": {
				"condition": {
					"type": "string",
					"description": "expr-lang expression evaluated against input, trigger and nodes",
					"examples": ["input.amount > 100", "trigger.status == \"paid\""]
				}
			},
			"required": ["condition"]
		}`,
		Tags: []string{"core", "flow"},
	}
}

func (f *Factory) Create(_ *slog.Logger) (protocol.Handler, error) {
	return &Handler{}, nil
}
