package automationlog_test

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/scenarios/pkg/automationlog"
	"github.com/dukex/scenarios/pkg/mocks"
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(100 * time.Millisecond)

	return c.now
}

func newLog(t *testing.T) *automationlog.Log {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	seq := 0

	return automationlog.New(
		file.NewPersistence(t.TempDir()).LogRepository(),
		slog.Default(),
		automationlog.WithClock(clock.Now),
		automationlog.WithIDGenerator(func() string {
			seq++

			return fmt.Sprintf("entry-%02d", seq)
		}),
	)
}

var run = automationlog.Run{ScenarioID: "s-1", RunID: "run-1", UserID: "u-1"}

func TestLog_SuccessfulRun(t *testing.T) {
	log := newLog(t)
	ctx := t.Context()

	start, err := log.LogStart(ctx, run, map[string]any{"order_id": "o-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionScenarioStart, start.Action)
	assert.Equal(t, models.LogStatusRunning, start.Status)

	running, err := log.LogNodeRunning(ctx, run, automationlog.NodeStep{
		NodeID: "fetch",
		Action: "http_request",
		Input:  map[string]any{"id": "o-1"},
		RequestInfo: &models.RequestInfo{
			Endpoint: "https://api.example.com/orders/o-1",
			Method:   "GET",
			Headers:  map[string]string{"Authorization": "Bearer secret", "Accept": "application/json"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaskedHeaderValue, running.RequestInfo.Headers["Authorization"])
	assert.Equal(t, "application/json", running.RequestInfo.Headers["Accept"])

	completed, err := log.LogNodeComplete(ctx, running.ID, models.LogCompletion{
		Status:     models.LogStatusSuccess,
		OutputData: map[string]any{"amount": 12.5},
		ResponseInfo: &models.RequestInfo{
			StatusCode: 200,
			Headers:    map[string]string{"Set-Cookie": "session=abc"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.LogStatusSuccess, completed.Status)
	assert.Equal(t, models.MaskedHeaderValue, completed.ResponseInfo.Headers["Set-Cookie"])
	assert.Equal(t, int64(100), *completed.DurationMs)

	_, err = log.LogComplete(ctx, run, models.LogStatusSuccess, start.StartTime, "")
	require.NoError(t, err)

	status, err := log.RunStatus(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStateCompleted, status.Status)
	assert.Equal(t, "s-1", status.ScenarioID)
	assert.Equal(t, start.StartTime, status.StartedAt)
	require.NotNil(t, status.FinishedAt)
	require.Len(t, status.NodeStatuses, 1)
	assert.Equal(t, "fetch", status.NodeStatuses[0].NodeID)
	assert.Equal(t, models.LogStatusSuccess, status.NodeStatuses[0].Status)

	entries, err := log.List(ctx, models.LogFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.ActionScenarioStart, entries[0].Action)
	assert.Equal(t, "fetch", entries[1].NodeID)
	assert.Equal(t, models.ActionScenarioComplete, entries[2].Action)
}

func TestLog_FailedRunWithSkips(t *testing.T) {
	log := newLog(t)
	ctx := t.Context()

	start, err := log.LogStart(ctx, run, nil)
	require.NoError(t, err)

	running, err := log.LogNodeRunning(ctx, run, automationlog.NodeStep{NodeID: "a", Action: "log"})
	require.NoError(t, err)

	_, err = log.LogNodeComplete(ctx, running.ID, models.LogCompletion{Status: models.LogStatusError, ErrorMessage: "boom"})
	require.NoError(t, err)

	skipped, err := log.LogNodeSkipped(ctx, run, "b", "log", "upstream node a failed")
	require.NoError(t, err)
	assert.Equal(t, models.LogStatusSkipped, skipped.Status)

	_, err = log.LogComplete(ctx, run, models.LogStatusError, start.StartTime, "node a failed: boom")
	require.NoError(t, err)

	status, err := log.RunStatus(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStateFailed, status.Status)
	assert.Equal(t, "node a failed: boom", status.ErrorMessage)
	require.Len(t, status.NodeStatuses, 2)
	assert.Equal(t, models.LogStatusError, status.NodeStatuses[0].Status)
	assert.Equal(t, models.LogStatusSkipped, status.NodeStatuses[1].Status)
}

func TestLog_CompletionIsSinglePatch(t *testing.T) {
	log := newLog(t)
	ctx := t.Context()

	running, err := log.LogNodeRunning(ctx, run, automationlog.NodeStep{NodeID: "a", Action: "log"})
	require.NoError(t, err)

	_, err = log.LogNodeComplete(ctx, running.ID, models.LogCompletion{Status: models.LogStatusSuccess})
	require.NoError(t, err)

	_, err = log.LogNodeComplete(ctx, running.ID, models.LogCompletion{Status: models.LogStatusError})
	require.ErrorIs(t, err, persistence.ErrLogEntryFinalized)

	_, err = log.LogNodeComplete(ctx, running.ID, models.LogCompletion{Status: models.LogStatusRunning})
	require.Error(t, err)
}

func TestLog_RunStatusInProgress(t *testing.T) {
	log := newLog(t)
	ctx := t.Context()

	_, err := log.LogStart(ctx, run, nil)
	require.NoError(t, err)

	_, err = log.LogNodeRunning(ctx, run, automationlog.NodeStep{NodeID: "a", Action: "log"})
	require.NoError(t, err)

	status, err := log.RunStatus(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStateRunning, status.Status)
	assert.Nil(t, status.FinishedAt)
	require.Len(t, status.NodeStatuses, 1)
	assert.Equal(t, models.LogStatusRunning, status.NodeStatuses[0].Status)
}

func TestLog_RunStatusUnknownRun(t *testing.T) {
	log := newLog(t)

	_, err := log.RunStatus(t.Context(), "missing")
	require.ErrorIs(t, err, automationlog.ErrRunNotFound)
}

func TestLog_AppendFailureIsReturned(t *testing.T) {
	repo := &mocks.MockLogRepository{}
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	log := automationlog.New(repo, slog.Default())

	_, err := log.LogStart(t.Context(), run, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	repo.AssertExpectations(t)
}

func TestDeriveRunStatus_Cancelled(t *testing.T) {
	now := time.Now().UTC()
	entries := []*models.AutomationLogEntry{
		{RunID: "r", ScenarioID: "s", Action: models.ActionScenarioStart, Status: models.LogStatusRunning, StartTime: now},
		{RunID: "r", ScenarioID: "s", NodeID: "a", Action: "log", Status: models.LogStatusSuccess, StartTime: now},
		{RunID: "r", ScenarioID: "s", NodeID: "b", Action: "log", Status: models.LogStatusSkipped, StartTime: now},
		{RunID: "r", ScenarioID: "s", Action: models.ActionScenarioComplete, Status: models.LogStatusCancelled, StartTime: now, EndTime: &now},
	}

	status := automationlog.DeriveRunStatus("r", entries)
	assert.Equal(t, models.RunStateCancelled, status.Status)
	assert.Len(t, status.NodeStatuses, 2)
}
