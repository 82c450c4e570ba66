package web

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/dukex/scenarios/pkg/services"
)

const webhookSecretHeader = "X-Webhook-Secret"

func (h *APIHandlers) ReceiveWebhook(c fiber.Ctx) error {
	body := map[string]any{}

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "Webhook body must be a JSON object")
		}
	}

	headers := make(map[string]string)

	for name, values := range c.GetReqHeaders() {
		if strings.EqualFold(name, webhookSecretHeader) || strings.EqualFold(name, fiber.HeaderAuthorization) {
			continue
		}

		headers[strings.ToLower(name)] = strings.Join(values, ",")
	}

	runID, err := h.scenarioService.TriggerWebhook(c.Context(), c.Params("id"), services.WebhookRequest{
		Body:    body,
		Headers: headers,
		Query:   c.Queries(),
		Secret:  c.Get(webhookSecretHeader),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(RunScenarioResponse{RunID: runID})
}
