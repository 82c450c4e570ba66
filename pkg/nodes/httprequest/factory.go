package httprequest

import (
	"log/slog"
	"net/http"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

const Identifier = "http_request"

// Factory registers the HTTP request node.
type Factory struct {
	client *http.Client
}

// NewFactory creates a factory; a nil client uses a default http.Client.
func NewFactory(client *http.Client) protocol.HandlerFactory {
	return &Factory{client: client}
}

func (f *Factory) Definition() models.IntegrationNodeDefinition {
	return models.IntegrationNodeDefinition{
		Identifier:      Identifier,
		Name:            "HTTP Request",
		Category:        models.CategoryTypeAction,
		IntegrationType: "http",
		Description:     "Performs an HTTP request with retries; connection secrets are applied as bearer, basic or api key auth",
		Version:         "1.0.0",
		ConfigSchema: `{
			"type": "object",
			"properties": {
				"url": {
					"type": "string",
					"description": "HTTP URL to request. Supports templating",
					"examples": ["https://api.example.com/users/{{.input.user_id}}"]
				},
				"method": {
					"type": "string",
					"default": "GET",
					"enum": ["GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"]
				},
				"headers": {"type": "object", "additionalProperties": {"type": "string"}},
				"body": {"type": "string", "description": "Request body template; defaults to the node input as JSON for write methods"},
				"timeout": {"type": "number", "default": 30, "minimum": 1, "maximum": 300},
				"retries": {
					"type": "object",
					"properties": {
						"attempts": {"type": "number", "default": 1, "minimum": 1, "maximum": 10},
						"delay": {"type": "number", "default": 0, "minimum": 0, "maximum": 30000}
					}
				},
				"auth": {"type": "string", "enum": ["none", "bearer", "basic", "api_key"]},
				"api_key_header": {"type": "string", "default": "X-API-Key"}
			},
			"required": ["url"]
		}`,
		OutputSchema: `{
			"type": "object",
			"properties": {
				"status_code": {"type": "number"},
				"headers": {"type": "object"},
				"body": {"type": "string"},
				"json": {}
			}
		}`,
		Tags: []string{"http", "api"},
	}
}

func (f *Factory) Create(logger *slog.Logger) (protocol.Handler, error) {
	return NewHandler(logger, f.client), nil
}
