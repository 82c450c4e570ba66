package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/nodes/trigger"
)

var (
	// ErrWebhookNotConfigured is returned when a scenario has no webhook trigger node (404).
	ErrWebhookNotConfigured = errors.New("scenario has no webhook trigger")

	// ErrWebhookUnauthorized is returned when the webhook secret does not match (401).
	ErrWebhookUnauthorized = errors.New("invalid webhook secret")

	// ErrScenarioInactive is returned when an inactive scenario receives a webhook (409).
	ErrScenarioInactive = errors.New("scenario is inactive")
)

// WebhookRequest is one HTTP request received for a scenario webhook.
type WebhookRequest struct {
	Body    map[string]any
	Headers map[string]string
	Query   map[string]string
	Secret  string
}

// TriggerWebhook starts a run of an active scenario whose graph contains a
// webhook trigger node. The request becomes the trigger payload.
func (s *Scenario) TriggerWebhook(ctx context.Context, scenarioID string, req WebhookRequest) (string, error) {
	scenario, err := s.persistence.ScenarioRepository().GetByID(ctx, scenarioID)
	if err != nil {
		return "", err
	}

	if !scenario.IsActive() {
		return "", &ServiceError{
			Op:      "TriggerWebhook",
			Code:    "SCENARIO_INACTIVE",
			Message: fmt.Sprintf("scenario %s is inactive", scenarioID),
			Err:     ErrScenarioInactive,
		}
	}

	nodes, err := s.persistence.NodeRepository().ListNodes(ctx, scenarioID)
	if err != nil {
		return "", fmt.Errorf("failed to load nodes: %w", err)
	}

	webhook := findWebhookNode(nodes)
	if webhook == nil {
		return "", fmt.Errorf("%w: %s", ErrWebhookNotConfigured, scenarioID)
	}

	if secret, _ := webhook.Config["secret"].(string); secret != "" {
		if subtle.ConstantTimeCompare([]byte(secret), []byte(req.Secret)) != 1 {
			return "", ErrWebhookUnauthorized
		}
	}

	payload := map[string]any{
		"body":        orEmpty(req.Body),
		"headers":     stringMap(req.Headers),
		"query":       stringMap(req.Query),
		"received_at": time.Now().UTC().Format(time.RFC3339),
	}

	return s.RunScenario(ctx, scenarioID, RunRequest{TriggerPayload: payload})
}

func findWebhookNode(nodes []*models.ScenarioNode) *models.ScenarioNode {
	for _, node := range nodes {
		if node.IntegrationNodeID == trigger.WebhookIdentifier {
			return node
		}
	}

	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}

func stringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
