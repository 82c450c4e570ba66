// Package events defines the run lifecycle notifications published by the executor.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every scenario lifecycle event.
const Topic = "scenarios.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent   EventType = "scenario.run.started"
	RunCompletedEvent EventType = "scenario.run.completed"
	RunFailedEvent    EventType = "scenario.run.failed"
	RunCancelledEvent EventType = "scenario.run.cancelled"
	NodeExecutedEvent EventType = "scenario.node.executed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	ScenarioID string         `json:"scenario_id"`
	RunID      string         `json:"run_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type RunStarted struct {
	BaseEvent

	UserID      string         `json:"user_id,omitempty"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
	Strategy    string         `json:"strategy"`
	NodeCount   int            `json:"node_count"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunCompleted struct {
	BaseEvent

	DurationMs    int64 `json:"duration_ms"`
	NodesExecuted int   `json:"nodes_executed"`
	NodesSkipped  int   `json:"nodes_skipped"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	DurationMs    int64  `json:"duration_ms"`
	FailedNodeID  string `json:"failed_node_id,omitempty"`
	Error         string `json:"error"`
	NodesExecuted int    `json:"nodes_executed"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type RunCancelled struct {
	BaseEvent

	DurationMs    int64 `json:"duration_ms"`
	NodesExecuted int   `json:"nodes_executed"`
	NodesSkipped  int   `json:"nodes_skipped"`
}

func (e RunCancelled) GetType() EventType {
	return RunCancelledEvent
}

// NodeExecuted is published after each dispatched node step finishes.
type NodeExecuted struct {
	BaseEvent

	NodeID       string `json:"node_id"`
	Identifier   string `json:"identifier"`
	Status       string `json:"status"`
	Branch       string `json:"branch,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
}

func (e NodeExecuted) GetType() EventType {
	return NodeExecutedEvent
}

func NewBaseEvent(eventType EventType, scenarioID, runID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		ScenarioID: scenarioID,
		RunID:      runID,
		Metadata:   make(map[string]any),
	}
}

// New returns an empty event value for the type, used when decoding messages.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case RunStartedEvent:
		return &RunStarted{}, true
	case RunCompletedEvent:
		return &RunCompleted{}, true
	case RunFailedEvent:
		return &RunFailed{}, true
	case RunCancelledEvent:
		return &RunCancelled{}, true
	case NodeExecutedEvent:
		return &NodeExecuted{}, true
	default:
		return nil, false
	}
}
