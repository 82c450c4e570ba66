package merge

import (
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

const Identifier = "merge"

// Factory registers the merge node.
type Factory struct{}

func NewFactory() protocol.HandlerFactory {
	return &Factory{}
}

func (f *Factory) Definition() models.IntegrationNodeDefinition {
	return models.IntegrationNodeDefinition{
		Identifier:      Identifier,
		Name:            "Merge",
		Category:        models.CategoryTypeLogic,
		IntegrationType: "core",
		Description:     "Joins converging branches into a single output",
		Version:         "1.0.0",
		ConfigSchema: `{
			"type": "object",
			"properties": {
				"merge_mode": {"type": "string", "enum": ["flat", "nest"], "default": "flat"},
				"key": {"type": "string"}
			}
		}`,
		Tags: []string{"core", "flow"},
	}
}

func (f *Factory) Create(_ *slog.Logger) (protocol.Handler, error) {
	return &Handler{}, nil
}
