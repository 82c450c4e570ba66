package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukex/scenarios/pkg/automationlog"
	"github.com/dukex/scenarios/pkg/executor"
	"github.com/dukex/scenarios/pkg/graph"
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

var (
	// ErrScenarioNotFound is returned when a scenario is not found.
	ErrScenarioNotFound = persistence.ErrScenarioNotFound

	// ErrRunNotFound is returned when no log entry exists for a run.
	ErrRunNotFound = automationlog.ErrRunNotFound
)

// Scenario exposes scenario CRUD, validation and the run operations.
type Scenario struct {
	persistence persistence.Persistence
	executor    *executor.Executor
	logs        *automationlog.Log
	logger      *slog.Logger

	runs sync.WaitGroup
	// pending maps ids of started runs to their scenario until the run ends.
	pending sync.Map
}

// NewScenario creates a new scenario service.
func NewScenario(
	persistence persistence.Persistence,
	executor *executor.Executor,
	logs *automationlog.Log,
	logger *slog.Logger,
) *Scenario {
	return &Scenario{
		persistence: persistence,
		executor:    executor,
		logs:        logs,
		logger:      logger.With("module", "scenario_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Scenario) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns the scenarios of an owner, or all scenarios for an empty owner.
func (s *Scenario) List(ctx context.Context, ownerID string) ([]*models.Scenario, error) {
	scenarios, err := s.persistence.ScenarioRepository().List(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	return scenarios, nil
}

// FetchByID retrieves a scenario by its ID.
func (s *Scenario) FetchByID(ctx context.Context, id string) (*models.Scenario, error) {
	return s.persistence.ScenarioRepository().GetByID(ctx, id)
}

// Create adds a new scenario to the repository.
func (s *Scenario) Create(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error) {
	if scenario.Status == "" {
		scenario.Status = models.ScenarioStatusActive
	}

	if err := validateScenario("Create", scenario); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	scenario.ID = uuid.New().String()
	scenario.CreatedAt = now
	scenario.UpdatedAt = now

	err := s.persistence.ScenarioRepository().Save(ctx, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario: %w", err)
	}

	return scenario, nil
}

// Update replaces the editable fields of an existing scenario.
func (s *Scenario) Update(ctx context.Context, scenarioID string, scenario *models.Scenario) (*models.Scenario, error) {
	existing, err := s.persistence.ScenarioRepository().GetByID(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	if scenario.Status == "" {
		scenario.Status = existing.Status
	}

	if scenario.OwnerID == "" {
		scenario.OwnerID = existing.OwnerID
	}

	if err := validateScenario("Update", scenario); err != nil {
		return nil, err
	}

	scenario.ID = scenarioID
	scenario.CreatedAt = existing.CreatedAt
	scenario.UpdatedAt = time.Now().UTC()

	err = s.persistence.ScenarioRepository().Save(ctx, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to update scenario: %w", err)
	}

	return scenario, nil
}

// Delete removes a scenario with its nodes and edges. Its run logs are kept.
func (s *Scenario) Delete(ctx context.Context, scenarioID string) error {
	return s.persistence.ScenarioRepository().Delete(ctx, scenarioID)
}

func validateScenario(op string, scenario *models.Scenario) error {
	scenario.Name = strings.TrimSpace(scenario.Name)
	if scenario.Name == "" {
		return ErrScenarioNameRequired
	}

	scenario.OwnerID = strings.TrimSpace(scenario.OwnerID)
	if scenario.OwnerID == "" {
		return ErrEmptyOwnerID
	}

	if scenario.Status != models.ScenarioStatusActive && scenario.Status != models.ScenarioStatusInactive {
		return NewValidationError(op, "INVALID_STATUS", fmt.Sprintf("invalid status '%s'", scenario.Status), ErrInvalidStatus)
	}

	if scenario.Schedule != "" {
		if _, err := cron.ParseStandard(scenario.Schedule); err != nil {
			return NewValidationError(op, "INVALID_SCHEDULE", fmt.Sprintf("invalid schedule '%s': %v", scenario.Schedule, err), ErrInvalidSchedule)
		}
	}

	return nil
}

// ValidateScenario checks the stored graph of a scenario.
func (s *Scenario) ValidateScenario(ctx context.Context, scenarioID string) (graph.ValidationResult, error) {
	if _, err := s.persistence.ScenarioRepository().GetByID(ctx, scenarioID); err != nil {
		return graph.ValidationResult{}, err
	}

	return s.executor.Validate(ctx, scenarioID)
}

// RunRequest carries the caller-supplied inputs of a run.
type RunRequest struct {
	TriggerPayload map[string]any
	UserID         string
}

// RunScenario validates the scenario and starts a run in the background. The
// returned run id can be polled with GetRunStatus. Validation failures are
// returned before any log entry is written.
func (s *Scenario) RunScenario(ctx context.Context, scenarioID string, req RunRequest) (string, error) {
	result, err := s.ValidateScenario(ctx, scenarioID)
	if err != nil {
		return "", err
	}

	if !result.Valid {
		return "", result.Err()
	}

	runID := uuid.New().String()
	runCtx := context.WithoutCancel(ctx)

	s.runs.Add(1)
	s.pending.Store(runID, scenarioID)

	go func() {
		defer s.runs.Done()
		defer s.pending.Delete(runID)

		_, err := s.executor.Run(runCtx, executor.RunRequest{
			ScenarioID:     scenarioID,
			TriggerPayload: req.TriggerPayload,
			UserID:         req.UserID,
			RunID:          runID,
		})
		if err != nil {
			s.logger.ErrorContext(runCtx, "Run ended with error", "scenario_id", scenarioID, "run_id", runID, "error", err)
		}
	}()

	return runID, nil
}

// RunScenarioSync validates and runs a scenario in the caller's goroutine.
func (s *Scenario) RunScenarioSync(ctx context.Context, scenarioID string, req RunRequest) (*executor.Result, error) {
	result, err := s.ValidateScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	if !result.Valid {
		return nil, result.Err()
	}

	return s.executor.Run(ctx, executor.RunRequest{
		ScenarioID:     scenarioID,
		TriggerPayload: req.TriggerPayload,
		UserID:         req.UserID,
	})
}

// Wait blocks until every background run started by RunScenario finished.
func (s *Scenario) Wait() {
	s.runs.Wait()
}

// GetRunStatus derives the state of a run from its log entries.
// A run accepted by RunScenario that has not written its first entry is pending.
func (s *Scenario) GetRunStatus(ctx context.Context, runID string) (*models.RunStatus, error) {
	status, err := s.logs.RunStatus(ctx, runID)
	if errors.Is(err, ErrRunNotFound) {
		if scenarioID, ok := s.pending.Load(runID); ok {
			return &models.RunStatus{
				RunID:        runID,
				ScenarioID:   scenarioID.(string),
				Status:       models.RunStatePending,
				NodeStatuses: []models.NodeRunStatus{},
			}, nil
		}
	}

	return status, err
}

// ListLogs queries the automation log. The limit defaults to 100 and is capped at 1000.
func (s *Scenario) ListLogs(ctx context.Context, filter models.LogFilter) ([]*models.AutomationLogEntry, error) {
	if filter.Limit < 0 {
		return nil, NewValidationError("ListLogs", "INVALID_LIMIT", "limit cannot be negative", ErrInvalidRequest)
	}

	if filter.Limit == 0 {
		filter.Limit = defaultLogLimit
	}

	filter.Limit = min(filter.Limit, maxLogLimit)

	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, NewValidationError("ListLogs", "INVALID_RANGE", "'to' must not be before 'from'", ErrInvalidRequest)
	}

	return s.logs.List(ctx, filter)
}

// CancelRun flags a running run. Remaining nodes are skipped at the next step boundary.
func (s *Scenario) CancelRun(ctx context.Context, runID string) error {
	status, err := s.GetRunStatus(ctx, runID)
	if err != nil {
		return err
	}

	if status.Status != models.RunStateRunning && status.Status != models.RunStatePending {
		return &ServiceError{
			Op:      "CancelRun",
			Code:    "RUN_FINISHED",
			Message: fmt.Sprintf("run %s is %s", runID, status.Status),
			Err:     ErrRunFinished,
		}
	}

	err = s.executor.Cancel(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to cancel run: %w", err)
	}

	s.logger.InfoContext(ctx, "Run cancellation requested", "run_id", runID)

	return nil
}
