package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/dukex/scenarios/pkg/automationlog"
	"github.com/dukex/scenarios/pkg/events"
	"github.com/dukex/scenarios/pkg/graph"
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/otelhelper"
	"github.com/dukex/scenarios/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// run holds the state of one in-flight run.
type run struct {
	executor  *Executor
	ref       automationlog.Run
	trigger   map[string]any
	logger    *slog.Logger
	plan      *graph.ExecutionPlan
	startedAt time.Time

	// outputs of successful nodes, read by downstream mappings.
	outputs map[string]map[string]any

	// taken marks edges whose source succeeded with a matching branch.
	taken map[string]bool

	// states holds the final log status of every node processed so far.
	states map[string]models.LogStatus

	cancelled bool

	result *Result
}

// walk processes the plan in order. A failed node does not stop the walk:
// nodes it feeds are skipped once none of their inbound edges was taken, and
// nodes with another satisfied producer still run. Cancellation skips every
// remaining node. Only log write failures are returned.
func (r *run) walk(ctx context.Context) error {
	for _, node := range r.plan.Order {
		if !r.cancelled {
			r.checkCancelled(ctx)
		}

		if r.cancelled {
			if err := r.skip(ctx, node, "run cancelled"); err != nil {
				return err
			}

			continue
		}

		if !r.reached(node) {
			if err := r.skip(ctx, node, r.unreachedReason(node)); err != nil {
				return err
			}

			continue
		}

		if err := r.step(ctx, node); err != nil {
			return err
		}
	}

	return r.finish(ctx)
}

func (r *run) checkCancelled(ctx context.Context) {
	cancelled := ctx.Err() != nil

	if !cancelled {
		flagged, err := r.executor.cancellations.IsCancelled(ctx, r.ref.RunID)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to read cancellation flag", "error", err)
		}

		cancelled = flagged
	}

	if cancelled {
		r.logger.InfoContext(ctx, "Run cancelled")
		r.cancelled = true
	}
}

// unreachedReason names the upstream outcome that left a node without a
// taken inbound edge. Producers are always resolved here since the plan is
// topologically ordered.
func (r *run) unreachedReason(node *models.ScenarioNode) string {
	var skipped string

	for _, edge := range r.plan.Inbound(node.ID) {
		switch r.states[edge.SourceNodeID] {
		case models.LogStatusError:
			return fmt.Sprintf("upstream node %s failed", edge.SourceNodeID)
		case models.LogStatusSkipped:
			if skipped == "" {
				skipped = edge.SourceNodeID
			}
		}
	}

	if skipped != "" {
		return fmt.Sprintf("upstream node %s was skipped", skipped)
	}

	return "not reached: no inbound edge was taken"
}

// reached reports whether a node is a root or has a taken inbound edge.
func (r *run) reached(node *models.ScenarioNode) bool {
	if r.plan.IsRoot(node.ID) {
		return true
	}

	for _, edge := range r.plan.Inbound(node.ID) {
		if r.taken[edge.ID] {
			return true
		}
	}

	return false
}

func (r *run) skip(ctx context.Context, node *models.ScenarioNode, reason string) error {
	_, err := r.executor.log.LogNodeSkipped(context.WithoutCancel(ctx), r.ref, node.ID, node.IntegrationNodeID, reason)
	if err != nil {
		return err
	}

	r.states[node.ID] = models.LogStatusSkipped
	r.result.NodesSkipped++

	return nil
}

// step runs one node: log running, build input, resolve, dispatch, log completion.
func (r *run) step(ctx context.Context, node *models.ScenarioNode) error {
	e := r.executor
	logger := r.logger.With("node_id", node.ID, "identifier", node.IntegrationNodeID)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "executor.node",
		attribute.String(otelhelper.RunIDKey, r.ref.RunID),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeIdentifierKey, node.IntegrationNodeID),
	)
	defer span.End()

	input, inputErr := r.buildInput(node)

	entry, err := e.log.LogNodeRunning(ctx, r.ref, automationlog.NodeStep{
		NodeID: node.ID,
		Action: node.IntegrationNodeID,
		Input:  input,
	})
	if err != nil {
		return err
	}

	started := e.now()
	r.result.NodesExecuted++

	var outcome *protocol.HandlerResult

	stepErr := inputErr
	if stepErr == nil {
		outcome, stepErr = r.dispatch(ctx, node, input)
	}

	completion := models.LogCompletion{Status: models.LogStatusSuccess}
	if outcome != nil {
		completion.RequestInfo = outcome.RequestInfo
		completion.ResponseInfo = outcome.ResponseInfo
	}

	executed := &events.NodeExecuted{
		BaseEvent:  events.NewBaseEvent(events.NodeExecutedEvent, r.ref.ScenarioID, r.ref.RunID),
		NodeID:     node.ID,
		Identifier: node.IntegrationNodeID,
	}

	if stepErr != nil {
		logger.WarnContext(ctx, "Node failed", "error", stepErr)
		otelhelper.SetError(span, stepErr)

		completion.Status = models.LogStatusError
		completion.ErrorMessage = stepErr.Error()

		if r.result.Err == nil {
			r.result.FailedNodeID = node.ID
			r.result.Err = stepErr
		}
	} else {
		completion.OutputData = outcome.Output

		r.outputs[node.ID] = outcome.Output
		r.result.Outputs[node.ID] = outcome.Output

		for _, edge := range r.plan.Outbound(node.ID) {
			if edge.Follows(outcome.Branch) {
				r.taken[edge.ID] = true
			}
		}

		span.SetAttributes(attribute.String(otelhelper.NodeBranchKey, outcome.Branch))
		logger.DebugContext(ctx, "Node succeeded", "branch", outcome.Branch)

		executed.Branch = outcome.Branch
	}

	completion.EndTime = e.now()
	r.states[node.ID] = completion.Status

	_, err = e.log.LogNodeComplete(context.WithoutCancel(ctx), entry.ID, completion)
	if err != nil {
		return err
	}

	executed.Status = string(completion.Status)
	executed.ErrorMessage = completion.ErrorMessage
	executed.DurationMs = completion.EndTime.Sub(started).Milliseconds()
	e.publish(ctx, r.ref.ScenarioID, executed)

	return nil
}

// buildInput merges the mapped outputs of every taken inbound edge, in edge
// order, so later edges win on field collisions. Roots receive the trigger
// payload. The node's input mapping template is applied last.
func (r *run) buildInput(node *models.ScenarioNode) (map[string]any, error) {
	input := make(map[string]any)

	if r.plan.IsRoot(node.ID) {
		maps.Copy(input, r.trigger)
	}

	for _, edge := range r.plan.Inbound(node.ID) {
		if !r.taken[edge.ID] {
			continue
		}

		mapped, err := r.executor.mapper.Apply(edge.Mapping, r.outputs[edge.SourceNodeID])
		if err != nil {
			return input, fmt.Errorf("edge %s: %w", edge.ID, err)
		}

		maps.Copy(input, mapped)
	}

	if len(node.InputMapping) > 0 {
		err := applyInputMapping(node.InputMapping, input, r.templateContext(node.ID, input))
		if err != nil {
			return input, err
		}
	}

	return input, nil
}

// dispatch resolves the node's handler and connection and calls the handler.
func (r *run) dispatch(ctx context.Context, node *models.ScenarioNode, input map[string]any) (*protocol.HandlerResult, error) {
	e := r.executor

	definition, handler, err := e.registry.Resolve(node.IntegrationNodeID)
	if err != nil {
		return nil, err
	}

	connection, err := r.connection(ctx, node, definition)
	if err != nil {
		return nil, err
	}

	req := &protocol.HandlerRequest{
		Identifier: definition.Identifier,
		ScenarioID: r.ref.ScenarioID,
		RunID:      r.ref.RunID,
		NodeID:     node.ID,
		Input:      input,
		Config:     node.Config,
		Connection: connection,
		Trigger:    r.trigger,
		Nodes:      r.nodeOutputs(),
	}

	callCtx := ctx
	if e.nodeTimeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, e.nodeTimeout)
		defer cancel()
	}

	result, err := handler.Execute(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", e.nodeTimeout, err)
		}

		return result, &HandlerError{NodeID: node.ID, Identifier: definition.Identifier, Err: err}
	}

	if result == nil {
		return nil, &HandlerError{NodeID: node.ID, Identifier: definition.Identifier, Message: "handler returned no result"}
	}

	if result.Status == protocol.HandlerStatusError {
		message := result.ErrorMessage
		if message == "" {
			message = "handler reported an error"
		}

		return result, &HandlerError{NodeID: node.ID, Identifier: definition.Identifier, Message: message}
	}

	if result.Output == nil {
		result.Output = map[string]any{}
	}

	return result, nil
}

// connection resolves and decrypts the node's connection, if any.
func (r *run) connection(ctx context.Context, node *models.ScenarioNode, definition models.IntegrationNodeDefinition) (*protocol.ResolvedConnection, error) {
	if node.ConnectionID == nil || *node.ConnectionID == "" {
		if definition.RequiresConnection {
			return nil, &MissingConnectionError{NodeID: node.ID, Reason: "node type requires a connection"}
		}

		return nil, nil
	}

	connectionID := *node.ConnectionID

	stored, err := r.executor.persistence.ConnectionRepository().GetConnection(ctx, connectionID)
	if err != nil {
		return nil, &MissingConnectionError{NodeID: node.ID, ConnectionID: connectionID, Reason: err.Error()}
	}

	if stored.Status == models.ConnectionStatusDisconnected {
		return nil, &MissingConnectionError{NodeID: node.ID, ConnectionID: connectionID, Reason: "connection is disconnected"}
	}

	if stored.IsExpired(r.executor.now()) {
		return nil, &MissingConnectionError{NodeID: node.ID, ConnectionID: connectionID, Reason: "connection expired"}
	}

	if r.executor.resolver == nil {
		return nil, &MissingConnectionError{NodeID: node.ID, ConnectionID: connectionID, Reason: "vault is not configured"}
	}

	secrets, err := r.executor.resolver.Resolve(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("node %s: connection %s: %w", node.ID, connectionID, err)
	}

	return &protocol.ResolvedConnection{
		ID:      stored.ID,
		AppID:   stored.AppID,
		Name:    stored.Name,
		Secrets: secrets,
	}, nil
}

func (r *run) nodeOutputs() map[string]any {
	nodes := make(map[string]any, len(r.outputs))
	for id, output := range r.outputs {
		nodes[id] = output
	}

	return nodes
}

// finish writes the scenario_complete entry and publishes the outcome.
func (r *run) finish(ctx context.Context) error {
	e := r.executor
	duration := e.now().Sub(r.startedAt).Milliseconds()

	base := func(eventType events.EventType) events.BaseEvent {
		return events.NewBaseEvent(eventType, r.ref.ScenarioID, r.ref.RunID)
	}

	switch {
	case r.result.Err != nil:
		r.result.Status = models.RunStateFailed
		message := fmt.Sprintf("node %s failed: %s", r.result.FailedNodeID, r.result.Err)

		if err := r.complete(ctx, models.LogStatusError, message); err != nil {
			return err
		}

		e.publish(ctx, r.ref.ScenarioID, &events.RunFailed{
			BaseEvent:     base(events.RunFailedEvent),
			DurationMs:    duration,
			FailedNodeID:  r.result.FailedNodeID,
			Error:         r.result.Err.Error(),
			NodesExecuted: r.result.NodesExecuted,
		})
		r.logger.WarnContext(ctx, "Run failed", "node_id", r.result.FailedNodeID, "error", r.result.Err)
	case r.cancelled:
		r.result.Status = models.RunStateCancelled

		if err := r.complete(ctx, models.LogStatusCancelled, "run cancelled"); err != nil {
			return err
		}

		e.publish(ctx, r.ref.ScenarioID, &events.RunCancelled{
			BaseEvent:     base(events.RunCancelledEvent),
			DurationMs:    duration,
			NodesExecuted: r.result.NodesExecuted,
			NodesSkipped:  r.result.NodesSkipped,
		})
	default:
		r.result.Status = models.RunStateCompleted

		if err := r.complete(ctx, models.LogStatusSuccess, ""); err != nil {
			return err
		}

		e.publish(ctx, r.ref.ScenarioID, &events.RunCompleted{
			BaseEvent:     base(events.RunCompletedEvent),
			DurationMs:    duration,
			NodesExecuted: r.result.NodesExecuted,
			NodesSkipped:  r.result.NodesSkipped,
		})
		r.logger.InfoContext(ctx, "Run completed", "nodes_executed", r.result.NodesExecuted, "nodes_skipped", r.result.NodesSkipped)
	}

	return nil
}

func (r *run) complete(ctx context.Context, status models.LogStatus, message string) error {
	_, err := r.executor.log.LogComplete(context.WithoutCancel(ctx), r.ref, status, r.startedAt, message)

	return err
}
