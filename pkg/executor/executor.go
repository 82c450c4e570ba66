// Package executor drives scenario runs: it walks the execution plan, resolves
// connections, maps inputs, dispatches node handlers and records every step in
// the automation log.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/scenarios/pkg/automationlog"
	"github.com/dukex/scenarios/pkg/eventbus"
	"github.com/dukex/scenarios/pkg/events"
	"github.com/dukex/scenarios/pkg/graph"
	"github.com/dukex/scenarios/pkg/mapping"
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/otelhelper"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/registry"
	"github.com/dukex/scenarios/pkg/runstate"
	"github.com/dukex/scenarios/pkg/vault"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunRequest starts one run of a scenario.
type RunRequest struct {
	ScenarioID     string
	TriggerPayload map[string]any
	UserID         string

	// RunID is generated when empty.
	RunID string
}

// Result summarises a finished run. Err holds the error that ended a failed
// run; the automation log remains the source of truth.
type Result struct {
	RunID         string
	ScenarioID    string
	Status        models.RunState
	Strategy      graph.Strategy
	FailedNodeID  string
	NodesExecuted int
	NodesSkipped  int
	Outputs       map[string]map[string]any
	Err           error
}

// Executor runs scenarios. It holds no per-run state, so concurrent runs of
// the same or different scenarios are independent.
type Executor struct {
	persistence   persistence.Persistence
	registry      *registry.Registry
	mapper        *mapping.Mapper
	log           *automationlog.Log
	resolver      *vault.Resolver
	cancellations runstate.CancellationStore
	publisher     eventbus.EventPublisher
	tracer        trace.Tracer
	logger        *slog.Logger
	nodeTimeout   time.Duration
	newRunID      func() string
	now           func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithVault sets the resolver used to decrypt connection secrets.
func WithVault(resolver *vault.Resolver) Option {
	return func(e *Executor) {
		e.resolver = resolver
	}
}

// WithCancellationStore sets where cancellation flags are read between steps.
func WithCancellationStore(store runstate.CancellationStore) Option {
	return func(e *Executor) {
		e.cancellations = store
	}
}

// WithEventPublisher publishes run lifecycle events. Publishing failures are
// logged and never fail a run.
func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Executor) {
		e.publisher = publisher
	}
}

// WithTracer sets the tracer for run and node spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithNodeTimeout bounds each handler call. Zero disables the bound.
func WithNodeTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.nodeTimeout = timeout
	}
}

// WithRunIDGenerator overrides how run ids are generated.
func WithRunIDGenerator(newRunID func() string) Option {
	return func(e *Executor) {
		e.newRunID = newRunID
	}
}

func New(
	p persistence.Persistence,
	reg *registry.Registry,
	mapper *mapping.Mapper,
	log *automationlog.Log,
	logger *slog.Logger,
	opts ...Option,
) *Executor {
	e := &Executor{
		persistence:   p,
		registry:      reg,
		mapper:        mapper,
		log:           log,
		cancellations: runstate.NewMemoryStore(),
		tracer:        otelhelper.DefaultTracer("scenarios/executor"),
		logger:        logger.With("module", "executor"),
		newRunID:      uuid.NewString,
		now:           func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Cancel flags a run so that no further nodes are dispatched.
func (e *Executor) Cancel(ctx context.Context, runID string) error {
	return e.cancellations.Cancel(ctx, runID)
}

// Run executes one scenario run to completion. The returned error is non-nil
// when the run could not start or the graph failed validation; node failures
// are reported through Result.Err and the automation log.
func (e *Executor) Run(ctx context.Context, req RunRequest) (*Result, error) {
	runID := req.RunID
	if runID == "" {
		runID = e.newRunID()
	}

	defer e.clearCancellation(ctx, runID)

	scenario, err := e.persistence.ScenarioRepository().GetByID(ctx, req.ScenarioID)
	if err != nil {
		if persistence.IsScenarioNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, req.ScenarioID)
		}

		return nil, fmt.Errorf("failed to load scenario %s: %w", req.ScenarioID, err)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "executor.run",
		attribute.String(otelhelper.ScenarioIDKey, scenario.ID),
		attribute.String(otelhelper.RunIDKey, runID),
	)
	defer span.End()

	r := &run{
		executor: e,
		ref:      automationlog.Run{ScenarioID: scenario.ID, RunID: runID, UserID: req.UserID},
		trigger:  req.TriggerPayload,
		logger:   e.logger.With("scenario_id", scenario.ID, "run_id", runID),
		outputs:  make(map[string]map[string]any),
		taken:    make(map[string]bool),
		states:   make(map[string]models.LogStatus),
		result: &Result{
			RunID:      runID,
			ScenarioID: scenario.ID,
			Status:     models.RunStateRunning,
			Outputs:    make(map[string]map[string]any),
		},
	}

	start, err := e.log.LogStart(ctx, r.ref, req.TriggerPayload)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	r.startedAt = start.StartTime
	r.logger.InfoContext(ctx, "Run started")

	plan, err := e.plan(ctx, scenario.ID)
	if err != nil {
		r.logger.WarnContext(ctx, "Scenario failed validation", "error", err)
		otelhelper.SetError(span, err)

		r.result.Status = models.RunStateFailed
		r.result.Err = err

		if logErr := r.complete(ctx, models.LogStatusError, err.Error()); logErr != nil {
			return r.result, errors.Join(err, logErr)
		}

		return r.result, err
	}

	r.plan = plan
	r.result.Strategy = plan.Strategy
	span.SetAttributes(attribute.String(otelhelper.PlanStrategyKey, string(plan.Strategy)))

	e.publish(ctx, scenario.ID, &events.RunStarted{
		BaseEvent:   events.NewBaseEvent(events.RunStartedEvent, scenario.ID, runID),
		UserID:      req.UserID,
		TriggerData: req.TriggerPayload,
		Strategy:    string(plan.Strategy),
		NodeCount:   len(plan.Order),
	})

	err = r.walk(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return r.result, err
	}

	if r.result.Err != nil {
		otelhelper.SetError(span, r.result.Err)
	}

	return r.result, nil
}

// Validate loads a scenario graph and checks it without running anything.
func (e *Executor) Validate(ctx context.Context, scenarioID string) (graph.ValidationResult, error) {
	g, err := persistence.LoadGraph(ctx, e.persistence, scenarioID)
	if err != nil {
		return graph.ValidationResult{}, err
	}

	return graph.Validate(g), nil
}

func (e *Executor) plan(ctx context.Context, scenarioID string) (*graph.ExecutionPlan, error) {
	g, err := persistence.LoadGraph(ctx, e.persistence, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario graph: %w", err)
	}

	return graph.NewPlan(g)
}

// clearCancellation drops the run's flag once the run has ended, however it ended.
func (e *Executor) clearCancellation(ctx context.Context, runID string) {
	err := e.cancellations.Clear(context.WithoutCancel(ctx), runID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to clear cancellation flag", "run_id", runID, "error", err)
	}
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.Publish(ctx, key, event)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
