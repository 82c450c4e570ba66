package log

import (
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

const Identifier = "log"

// Factory registers the log node.
type Factory struct{}

func NewFactory() protocol.HandlerFactory {
	return &Factory{}
}

func (f *Factory) Definition() models.IntegrationNodeDefinition {
	return models.IntegrationNodeDefinition{
		Identifier:      Identifier,
		Name:            "Log",
		Category:        models.CategoryTypeAction,
		IntegrationType: "core",
		Description:     "Logs a templated message and passes its input through",
		Version:         "1.0.0",
		ConfigSchema: `{
			"type": "object",
			"properties": {
				"message": {"type": "string", "description": "Go template rendered against the run context"},
				"level": {"type": "string", "enum": ["debug", "info", "warn", "error"], "default": "info"}
			},
			"required": ["message"]
		}`,
		Tags: []string{"core", "debug"},
	}
}

func (f *Factory) Create(logger *slog.Logger) (protocol.Handler, error) {
	return NewHandler(logger), nil
}
