package main

import (
	"context"
	"log/slog"

	"github.com/dukex/scenarios/pkg/eventbus"
	"github.com/dukex/scenarios/pkg/events"
)

// watchRuns logs the outcome of every run published on the bus.
func watchRuns(ctx context.Context, bus eventbus.EventSubscriber, logger *slog.Logger) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.RunCompletedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.RunCompleted)
			logger.InfoContext(ctx, "Run completed",
				"scenario_id", e.ScenarioID,
				"run_id", e.RunID,
				"duration_ms", e.DurationMs,
				"nodes_executed", e.NodesExecuted,
				"nodes_skipped", e.NodesSkipped)

			return nil
		},
		events.RunFailedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.RunFailed)
			logger.WarnContext(ctx, "Run failed",
				"scenario_id", e.ScenarioID,
				"run_id", e.RunID,
				"failed_node_id", e.FailedNodeID,
				"error", e.Error)

			return nil
		},
		events.RunCancelledEvent: func(ctx context.Context, event any) error {
			e := event.(*events.RunCancelled)
			logger.InfoContext(ctx, "Run cancelled", "scenario_id", e.ScenarioID, "run_id", e.RunID)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}
