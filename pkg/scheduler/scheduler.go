// Package scheduler runs active scenarios on their cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/services"
)

const defaultResyncInterval = time.Minute

// ScenarioRunner lists scenarios and starts runs.
type ScenarioRunner interface {
	List(ctx context.Context, ownerID string) ([]*models.Scenario, error)
	RunScenario(ctx context.Context, scenarioID string, req services.RunRequest) (string, error)
}

type job struct {
	entryID  cron.EntryID
	schedule string
}

// Scheduler keeps one cron entry per active scheduled scenario and resyncs
// the entries with the scenario store on an interval.
type Scheduler struct {
	runner   ScenarioRunner
	logger   *slog.Logger
	cron     *cron.Cron
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	jobs map[string]job
}

type Option func(*Scheduler)

// WithResyncInterval sets how often the scenario store is re-read.
func WithResyncInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func New(runner ScenarioRunner, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:   runner,
		logger:   logger.With("module", "scheduler"),
		interval: defaultResyncInterval,
		now:      time.Now,
		jobs:     make(map[string]job),
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start syncs the schedules and blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Sync(ctx); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "scenarios", len(s.Entries()))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-s.cron.Stop().Done()
			s.logger.Info("Scheduler stopped")

			return nil
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Failed to sync schedules", "error", err)
			}
		}
	}
}

// Sync adds, replaces and removes cron entries so that exactly the active
// scenarios with a schedule are registered.
func (s *Scheduler) Sync(ctx context.Context) error {
	scenarios, err := s.runner.List(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list scenarios: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]string, len(scenarios))

	for _, scenario := range scenarios {
		if scenario.IsActive() && scenario.Schedule != "" {
			wanted[scenario.ID] = scenario.Schedule
		}
	}

	for id, current := range s.jobs {
		if schedule, ok := wanted[id]; ok && schedule == current.schedule {
			continue
		}

		s.cron.Remove(current.entryID)
		delete(s.jobs, id)
		s.logger.InfoContext(ctx, "Removed schedule", "scenario_id", id, "schedule", current.schedule)
	}

	for id, schedule := range wanted {
		if _, ok := s.jobs[id]; ok {
			continue
		}

		entryID, err := s.cron.AddFunc(schedule, func() { s.fire(ctx, id, schedule) })
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping invalid schedule", "scenario_id", id, "schedule", schedule, "error", err)

			continue
		}

		s.jobs[id] = job{entryID: entryID, schedule: schedule}
		s.logger.InfoContext(ctx, "Added schedule", "scenario_id", id, "schedule", schedule)
	}

	return nil
}

// Entries returns the registered schedule of each scenario.
func (s *Scheduler) Entries() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make(map[string]string, len(s.jobs))
	for id, j := range s.jobs {
		entries[id] = j.schedule
	}

	return entries
}

func (s *Scheduler) fire(ctx context.Context, scenarioID, schedule string) {
	payload := map[string]any{
		"schedule":     schedule,
		"scheduled_at": s.now().UTC().Format(time.RFC3339),
	}

	runID, err := s.runner.RunScenario(ctx, scenarioID, services.RunRequest{TriggerPayload: payload})
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled run failed to start", "scenario_id", scenarioID, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled run started", "scenario_id", scenarioID, "run_id", runID)
}
