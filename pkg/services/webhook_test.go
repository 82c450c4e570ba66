package services

import (
	"testing"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/nodes/log"
	"github.com/dukex/scenarios/pkg/nodes/trigger"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_TriggerWebhook(t *testing.T) {
	s := newTestServices(t)
	scenario := s.createScenario(t)

	hook := s.createNode(t, scenario.ID, trigger.WebhookIdentifier, 0, map[string]any{"secret": "s3cret"})
	logNode := s.createNode(t, scenario.ID, log.Identifier, 1, map[string]any{"message": "order {{ .input.body.order_id }}"})
	s.connect(t, scenario.ID, hook.ID, logNode.ID)

	_, err := s.scenario.TriggerWebhook(t.Context(), scenario.ID, WebhookRequest{Secret: "wrong"})
	require.ErrorIs(t, err, ErrWebhookUnauthorized)

	runID, err := s.scenario.TriggerWebhook(t.Context(), scenario.ID, WebhookRequest{
		Body:    map[string]any{"order_id": "o-9"},
		Headers: map[string]string{"content-type": "application/json"},
		Secret:  "s3cret",
	})
	require.NoError(t, err)

	s.scenario.Wait()

	entries, err := s.scenario.ListLogs(t.Context(), models.LogFilter{RunID: runID, NodeID: logNode.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogStatusSuccess, entries[0].Status)
	assert.Equal(t, "order o-9", entries[0].OutputData["message"])
}

func TestScenario_TriggerWebhook_Rejected(t *testing.T) {
	s := newTestServices(t)

	_, err := s.scenario.TriggerWebhook(t.Context(), "missing", WebhookRequest{})
	assert.True(t, persistence.IsScenarioNotFound(err))

	scenario := s.createScenario(t)
	s.createNode(t, scenario.ID, trigger.ManualIdentifier, 0, nil)

	_, err = s.scenario.TriggerWebhook(t.Context(), scenario.ID, WebhookRequest{})
	require.ErrorIs(t, err, ErrWebhookNotConfigured)

	inactive, err := s.scenario.Create(t.Context(), &models.Scenario{
		Name:    "Paused sync",
		OwnerID: "owner-1",
		Status:  models.ScenarioStatusInactive,
	})
	require.NoError(t, err)

	_, err = s.scenario.TriggerWebhook(t.Context(), inactive.ID, WebhookRequest{})
	require.ErrorIs(t, err, ErrScenarioInactive)
	assert.True(t, IsConflictError(err))
}
