package transform

import (
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

const Identifier = "transform"

// Factory registers the transform node.
type Factory struct{}

func NewFactory() protocol.HandlerFactory {
	return &Factory{}
}

func (f *Factory) Definition() models.IntegrationNodeDefinition {
	return models.IntegrationNodeDefinition{
		Identifier:      Identifier,
		Name:            "Transform",
		Category:        models.CategoryTypeTransform,
		IntegrationType: "core",
		Description:     "Transforms data using Go templates with access to input, trigger and previous node outputs",
		Version:         "1.0.0",
		ConfigSchema: `{
			"type": "object",
			"properties": {
				"expression": {
					"type": "string",
					"description": "Go template; JSON object output becomes the node output",
					"examples": ["{\"full_name\": \"{{.input.first_name}} {{.input.last_name}}\"}"]
				}
			},
			"required": ["expression"]
		}`,
		Tags: []string{"core", "data"},
	}
}

func (f *Factory) Create(_ *slog.Logger) (protocol.Handler, error) {
	return &Handler{}, nil
}
