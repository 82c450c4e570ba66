// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrScenarioNotFound indicates a scenario was not found by the given identifier.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrNodeNotFound indicates a node was not found by the given identifier.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates an edge was not found by the given identifier.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrConnectionNotFound indicates a connection was not found by the given identifier.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrLogEntryNotFound indicates an automation log entry was not found.
	ErrLogEntryNotFound = errors.New("log entry not found")

	// ErrLogEntryExists indicates an append reused an existing log entry id.
	ErrLogEntryExists = errors.New("log entry already exists")

	// ErrLogEntryFinalized indicates a completion patch on an entry that already finished.
	ErrLogEntryFinalized = errors.New("log entry already finalized")

	// ErrInvalidID indicates an identifier unsafe for storage keys.
	ErrInvalidID = errors.New("invalid identifier")
)

// ScenarioError wraps scenario-related errors with additional context.
type ScenarioError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	ScenarioID string
	Err        error
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("%s operation failed for scenario %s: %v", e.Op, e.ScenarioID, e.Err)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}

// NewScenarioError creates a new scenario error with context.
func NewScenarioError(op, scenarioID string, err error) *ScenarioError {
	return &ScenarioError{Op: op, ScenarioID: scenarioID, Err: err}
}

// NodeError wraps node and edge errors with additional context.
type NodeError struct {
	Op         string
	ScenarioID string
	NodeID     string
	Err        error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s operation failed for %s in scenario %s: %v", e.Op, e.NodeID, e.ScenarioID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// LogEntryError wraps automation log errors with the entry id.
type LogEntryError struct {
	Op      string
	EntryID string
	Err     error
}

func (e *LogEntryError) Error() string {
	return fmt.Sprintf("%s operation failed for log entry %s: %v", e.Op, e.EntryID, e.Err)
}

func (e *LogEntryError) Unwrap() error {
	return e.Err
}

// IsScenarioNotFound checks if an error indicates a scenario was not found.
func IsScenarioNotFound(err error) bool {
	return errors.Is(err, ErrScenarioNotFound)
}

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsEdgeNotFound checks if an error indicates an edge was not found.
func IsEdgeNotFound(err error) bool {
	return errors.Is(err, ErrEdgeNotFound)
}

// IsConnectionNotFound checks if an error indicates a connection was not found.
func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}

// IsLogEntryFinalized checks if an error indicates a rejected patch on a finished log entry.
func IsLogEntryFinalized(err error) bool {
	return errors.Is(err, ErrLogEntryFinalized)
}

// IsNotFound checks if an error is any of the not found errors.
func IsNotFound(err error) bool {
	return IsScenarioNotFound(err) ||
		IsNodeNotFound(err) ||
		IsEdgeNotFound(err) ||
		IsConnectionNotFound(err) ||
		errors.Is(err, ErrLogEntryNotFound)
}
