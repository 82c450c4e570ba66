package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

const WebhookIdentifier = "trigger:webhook"

// WebhookHandler emits the received webhook request. When the node config
// carries a "json_schema", the request body must satisfy it.
type WebhookHandler struct{}

func (h *WebhookHandler) Execute(_ context.Context, req *protocol.HandlerRequest) (*protocol.HandlerResult, error) {
	if schema, ok := req.Config["json_schema"].(map[string]any); ok && len(schema) > 0 {
		body, _ := req.Input["body"].(map[string]any)
		if body == nil {
			body = map[string]any{}
		}

		if err := validateJSONSchema(body, schema); err != nil {
			return protocol.Failure(err.Error()), nil
		}
	}

	output := make(map[string]any, len(req.Input))
	for k, v := range req.Input {
		output[k] = v
	}

	return protocol.Success(output), nil
}

func validateJSONSchema(data map[string]any, schema map[string]any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("invalid json_schema: %w", err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}

		return fmt.Errorf("webhook body rejected: %s", strings.Join(violations, "; "))
	}

	return nil
}

// WebhookFactory registers the webhook trigger node.
type WebhookFactory struct{}

func NewWebhookFactory() protocol.HandlerFactory {
	return &WebhookFactory{}
}

func (f *WebhookFactory) Definition() models.IntegrationNodeDefinition {
	return models.IntegrationNodeDefinition{
		Identifier:      WebhookIdentifier,
		Name:            "Webhook Trigger",
		Category:        models.CategoryTypeTrigger,
		IntegrationType: "core",
		Description:     "Starts a run for each HTTP request posted to the scenario webhook",
		Version:         "1.0.0",
		ConfigSchema: `{
			"type": "object",
			"properties": {
				"secret": {"type": "string", "description": "Shared secret expected in the X-Webhook-Secret header"},
				"json_schema": {"type": "object", "description": "JSON schema the request body must satisfy"}
			}
		}`,
		OutputSchema: `{
			"type": "object",
			"properties": {
				"body": {"type": "object"},
				"headers": {"type": "object"},
				"query": {"type": "object"},
				"received_at": {"type": "string"}
			}
		}`,
		Tags: []string{"core", "trigger", "webhook"},
	}
}

func (f *WebhookFactory) Create(_ *slog.Logger) (protocol.Handler, error) {
	return &WebhookHandler{}, nil
}
