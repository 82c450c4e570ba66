// Package automationlog records the append-only history of scenario runs and
// derives run status from it.
package automationlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/google/uuid"
)

// ErrRunNotFound indicates no log entry exists for a run id.
var ErrRunNotFound = errors.New("run not found")

// Run identifies the run an entry belongs to.
type Run struct {
	ScenarioID string
	RunID      string
	UserID     string
}

// NodeStep describes a node dispatch about to happen.
type NodeStep struct {
	NodeID      string
	Action      string
	Input       map[string]any
	RequestInfo *models.RequestInfo
}

// Log writes automation log entries through a persistence.LogRepository.
type Log struct {
	repo   persistence.LogRepository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithIDGenerator overrides how entry ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(l *Log) {
		l.newID = newID
	}
}

func New(repo persistence.LogRepository, logger *slog.Logger, opts ...Option) *Log {
	l := &Log{
		repo:   repo,
		logger: logger.With("module", "automation_log"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Log) append(ctx context.Context, entry *models.AutomationLogEntry) (*models.AutomationLogEntry, error) {
	if entry.ID == "" {
		entry.ID = l.newID()
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = entry.StartTime
	}

	err := l.repo.Append(ctx, entry)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to append automation log entry",
			"run_id", entry.RunID,
			"node_id", entry.NodeID,
			"action", entry.Action,
			"error", err,
		)

		return nil, fmt.Errorf("failed to append %s entry for run %s: %w", entry.Action, entry.RunID, err)
	}

	return entry, nil
}

// LogStart records the scenario_start entry. It is never patched; the run's
// outcome is carried by the scenario_complete entry.
func (l *Log) LogStart(ctx context.Context, run Run, trigger map[string]any) (*models.AutomationLogEntry, error) {
	now := l.now()

	return l.append(ctx, &models.AutomationLogEntry{
		ScenarioID: run.ScenarioID,
		RunID:      run.RunID,
		Action:     models.ActionScenarioStart,
		Status:     models.LogStatusRunning,
		StartTime:  now,
		InputData:  trigger,
		UserID:     run.UserID,
	})
}

// LogNodeRunning records a node entry in the running state before dispatch.
func (l *Log) LogNodeRunning(ctx context.Context, run Run, step NodeStep) (*models.AutomationLogEntry, error) {
	return l.append(ctx, &models.AutomationLogEntry{
		ScenarioID:  run.ScenarioID,
		RunID:       run.RunID,
		NodeID:      step.NodeID,
		Action:      step.Action,
		Status:      models.LogStatusRunning,
		StartTime:   l.now(),
		InputData:   step.Input,
		RequestInfo: step.RequestInfo.Masked(),
		UserID:      run.UserID,
	})
}

// LogNodeComplete applies the completion patch to a running node entry.
func (l *Log) LogNodeComplete(ctx context.Context, entryID string, completion models.LogCompletion) (*models.AutomationLogEntry, error) {
	if !completion.Status.IsFinal() {
		return nil, fmt.Errorf("completion status must be final, got %q", completion.Status)
	}

	if completion.EndTime.IsZero() {
		completion.EndTime = l.now()
	}

	completion.RequestInfo = completion.RequestInfo.Masked()
	completion.ResponseInfo = completion.ResponseInfo.Masked()

	entry, err := l.repo.Complete(ctx, entryID, completion)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to complete automation log entry", "entry_id", entryID, "error", err)

		return nil, err
	}

	return entry, nil
}

// LogNodeSkipped records a node that was never dispatched.
func (l *Log) LogNodeSkipped(ctx context.Context, run Run, nodeID, action, reason string) (*models.AutomationLogEntry, error) {
	now := l.now()
	var duration int64

	return l.append(ctx, &models.AutomationLogEntry{
		ScenarioID:   run.ScenarioID,
		RunID:        run.RunID,
		NodeID:       nodeID,
		Action:       action,
		Status:       models.LogStatusSkipped,
		StartTime:    now,
		EndTime:      &now,
		DurationMs:   &duration,
		ErrorMessage: reason,
		UserID:       run.UserID,
	})
}

// LogComplete records the scenario_complete entry closing a run.
func (l *Log) LogComplete(ctx context.Context, run Run, status models.LogStatus, startedAt time.Time, errorMessage string) (*models.AutomationLogEntry, error) {
	now := l.now()
	duration := now.Sub(startedAt).Milliseconds()

	return l.append(ctx, &models.AutomationLogEntry{
		ScenarioID:   run.ScenarioID,
		RunID:        run.RunID,
		Action:       models.ActionScenarioComplete,
		Status:       status,
		StartTime:    startedAt,
		EndTime:      &now,
		DurationMs:   &duration,
		ErrorMessage: errorMessage,
		UserID:       run.UserID,
		Timestamp:    now,
	})
}

// List returns entries matching the filter in log order.
func (l *Log) List(ctx context.Context, filter models.LogFilter) ([]*models.AutomationLogEntry, error) {
	return l.repo.Query(ctx, filter)
}

// RunStatus derives the state of a run from its entries.
func (l *Log) RunStatus(ctx context.Context, runID string) (*models.RunStatus, error) {
	entries, err := l.repo.Query(ctx, models.LogFilter{RunID: runID})
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	return DeriveRunStatus(runID, entries), nil
}

// DeriveRunStatus folds the ordered entries of one run into a RunStatus.
func DeriveRunStatus(runID string, entries []*models.AutomationLogEntry) *models.RunStatus {
	status := &models.RunStatus{
		RunID:        runID,
		Status:       models.RunStatePending,
		NodeStatuses: make([]models.NodeRunStatus, 0, len(entries)),
	}

	for _, entry := range entries {
		if status.ScenarioID == "" {
			status.ScenarioID = entry.ScenarioID
		}

		switch {
		case entry.Action == models.ActionScenarioStart:
			status.Status = models.RunStateRunning
			status.StartedAt = entry.StartTime
		case entry.Action == models.ActionScenarioComplete:
			status.Status = runState(entry.Status)
			status.FinishedAt = entry.EndTime
			status.ErrorMessage = entry.ErrorMessage
		case entry.IsNodeEntry():
			status.NodeStatuses = append(status.NodeStatuses, models.NodeRunStatus{
				NodeID:       entry.NodeID,
				Action:       entry.Action,
				Status:       entry.Status,
				StartTime:    entry.StartTime,
				EndTime:      entry.EndTime,
				ErrorMessage: entry.ErrorMessage,
			})
		}
	}

	return status
}

func runState(status models.LogStatus) models.RunState {
	switch status {
	case models.LogStatusSuccess:
		return models.RunStateCompleted
	case models.LogStatusCancelled:
		return models.RunStateCancelled
	case models.LogStatusRunning:
		return models.RunStateRunning
	default:
		return models.RunStateFailed
	}
}
