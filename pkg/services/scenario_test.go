package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/scenarios/pkg/automationlog"
	"github.com/dukex/scenarios/pkg/executor"
	"github.com/dukex/scenarios/pkg/graph"
	"github.com/dukex/scenarios/pkg/mapping"
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/nodes/log"
	"github.com/dukex/scenarios/pkg/nodes/trigger"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/runstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_Create(t *testing.T) {
	s := newTestServices(t)

	created := s.createScenario(t)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.ScenarioStatusActive, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	fetched, err := s.scenario.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order sync", fetched.Name)
}

func TestScenario_Create_Validation(t *testing.T) {
	s := newTestServices(t)

	tests := []struct {
		name     string
		scenario *models.Scenario
		err      error
	}{
		{name: "missing name", scenario: &models.Scenario{OwnerID: "o"}, err: ErrScenarioNameRequired},
		{name: "missing owner", scenario: &models.Scenario{Name: "Sync"}, err: ErrEmptyOwnerID},
		{name: "bad status", scenario: &models.Scenario{Name: "Sync", OwnerID: "o", Status: "paused"}, err: ErrInvalidStatus},
		{name: "bad schedule", scenario: &models.Scenario{Name: "Sync", OwnerID: "o", Schedule: "every minute"}, err: ErrInvalidSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.scenario.Create(t.Context(), tt.scenario)
			require.ErrorIs(t, err, tt.err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestScenario_UpdateAndDelete(t *testing.T) {
	s := newTestServices(t)
	created := s.createScenario(t)

	updated, err := s.scenario.Update(t.Context(), created.ID, &models.Scenario{
		Name:     "Nightly sync",
		Schedule: "0 3 * * *",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "owner-1", updated.OwnerID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	list, err := s.scenario.List(t.Context(), "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Nightly sync", list[0].Name)

	require.NoError(t, s.scenario.Delete(t.Context(), created.ID))

	_, err = s.scenario.FetchByID(t.Context(), created.ID)
	assert.True(t, persistence.IsScenarioNotFound(err))
}

func TestScenario_RunScenario(t *testing.T) {
	s := newTestServices(t)
	scenario := s.createScenario(t)

	start := s.createNode(t, scenario.ID, trigger.ManualIdentifier, 0, nil)
	logNode := s.createNode(t, scenario.ID, log.Identifier, 1, map[string]any{"message": "order {{ .input.order_id }}"})
	s.connect(t, scenario.ID, start.ID, logNode.ID)

	runID, err := s.scenario.RunScenario(t.Context(), scenario.ID, RunRequest{
		TriggerPayload: map[string]any{"order_id": "o-1"},
		UserID:         "user-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	s.scenario.Wait()

	status, err := s.scenario.GetRunStatus(t.Context(), runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStateCompleted, status.Status)
	assert.Equal(t, scenario.ID, status.ScenarioID)
	require.Len(t, status.NodeStatuses, 2)
	assert.Equal(t, models.LogStatusSuccess, status.NodeStatuses[1].Status)

	entries, err := s.scenario.ListLogs(t.Context(), models.LogFilter{RunID: runID, NodeID: logNode.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "order o-1", entries[0].OutputData["message"])

	err = s.scenario.CancelRun(t.Context(), runID)
	require.ErrorIs(t, err, ErrRunFinished)
	assert.True(t, IsConflictError(err))
}

func TestScenario_RunScenario_InvalidGraphWritesNoLog(t *testing.T) {
	s := newTestServices(t)
	scenario := s.createScenario(t)

	a := s.createNode(t, scenario.ID, trigger.ManualIdentifier, 0, nil)
	b := s.createNode(t, scenario.ID, trigger.ManualIdentifier, 1, nil)
	c := s.createNode(t, scenario.ID, trigger.ManualIdentifier, 2, nil)
	s.connect(t, scenario.ID, a.ID, b.ID)
	s.connect(t, scenario.ID, b.ID, c.ID)
	s.connect(t, scenario.ID, c.ID, b.ID)

	result, err := s.scenario.ValidateScenario(t.Context(), scenario.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	_, err = s.scenario.RunScenario(t.Context(), scenario.ID, RunRequest{})
	require.ErrorIs(t, err, graph.ErrCyclicGraph)

	entries, err := s.scenario.ListLogs(t.Context(), models.LogFilter{ScenarioID: scenario.ID})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScenario_RunScenario_UnknownScenario(t *testing.T) {
	s := newTestServices(t)

	_, err := s.scenario.RunScenario(t.Context(), "missing", RunRequest{})
	assert.True(t, persistence.IsScenarioNotFound(err))
}

// gatedLogRepository holds every append until release is closed.
type gatedLogRepository struct {
	persistence.LogRepository
	release chan struct{}
}

func (g *gatedLogRepository) Append(ctx context.Context, entry *models.AutomationLogEntry) error {
	<-g.release

	return g.LogRepository.Append(ctx, entry)
}

func TestScenario_CancelRun_BeforeFirstLogEntry(t *testing.T) {
	s := newTestServices(t)
	scenario := s.createScenario(t)

	start := s.createNode(t, scenario.ID, trigger.ManualIdentifier, 0, nil)
	logNode := s.createNode(t, scenario.ID, log.Identifier, 1, map[string]any{"message": "hello"})
	s.connect(t, scenario.ID, start.ID, logNode.ID)

	gated := &gatedLogRepository{LogRepository: s.persistence.LogRepository(), release: make(chan struct{})}
	logs := automationlog.New(gated, slog.Default())
	cancellations := runstate.NewMemoryStore()
	exec := executor.New(s.persistence, s.registry, mapping.NewMapper(mapping.NewDefaultCatalog()), logs, slog.Default(),
		executor.WithCancellationStore(cancellations))
	service := NewScenario(s.persistence, exec, logs, slog.Default())

	runID, err := service.RunScenario(t.Context(), scenario.ID, RunRequest{})
	require.NoError(t, err)

	status, err := service.GetRunStatus(t.Context(), runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatePending, status.Status)
	assert.Equal(t, scenario.ID, status.ScenarioID)

	require.NoError(t, service.CancelRun(t.Context(), runID))

	close(gated.release)
	service.Wait()

	status, err = service.GetRunStatus(t.Context(), runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStateCancelled, status.Status)
	for _, node := range status.NodeStatuses {
		assert.Equal(t, models.LogStatusSkipped, node.Status)
	}

	flagged, err := cancellations.IsCancelled(t.Context(), runID)
	require.NoError(t, err)
	assert.False(t, flagged)
}

func TestScenario_GetRunStatus_UnknownRun(t *testing.T) {
	s := newTestServices(t)

	_, err := s.scenario.GetRunStatus(t.Context(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	err = s.scenario.CancelRun(t.Context(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestScenario_ListLogs_Validation(t *testing.T) {
	s := newTestServices(t)

	_, err := s.scenario.ListLogs(t.Context(), models.LogFilter{Limit: -1})
	require.ErrorIs(t, err, ErrInvalidRequest)

	from := time.Now()
	to := from.Add(-time.Hour)

	_, err = s.scenario.ListLogs(t.Context(), models.LogFilter{From: &from, To: &to})
	require.ErrorIs(t, err, ErrInvalidRequest)
}
