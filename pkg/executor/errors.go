package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConnection indicates a node step could not obtain a usable connection.
	ErrMissingConnection = errors.New("missing connection")

	// ErrHandlerFailed indicates the node handler reported a failure.
	ErrHandlerFailed = errors.New("handler failed")

	// ErrScenarioNotFound indicates a run was requested for an unknown scenario.
	ErrScenarioNotFound = errors.New("scenario not found")
)

// MissingConnectionError names the node and connection that could not be used.
type MissingConnectionError struct {
	NodeID       string
	ConnectionID string
	Reason       string
}

func (e *MissingConnectionError) Error() string {
	if e.ConnectionID == "" {
		return fmt.Sprintf("node %s: %s: %s", e.NodeID, ErrMissingConnection, e.Reason)
	}

	return fmt.Sprintf("node %s: %s %s: %s", e.NodeID, ErrMissingConnection, e.ConnectionID, e.Reason)
}

func (e *MissingConnectionError) Is(target error) bool {
	return target == ErrMissingConnection
}

// HandlerError carries the failure a node handler reported, either as an error
// status with a message or as a returned error.
type HandlerError struct {
	NodeID     string
	Identifier string
	Message    string
	Err        error
}

func (e *HandlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.Identifier, e.Err)
	}

	return fmt.Sprintf("node %s (%s): %s", e.NodeID, e.Identifier, e.Message)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

func (e *HandlerError) Is(target error) bool {
	return target == ErrHandlerFailed
}

// IsMissingConnection checks if an error indicates a missing connection.
func IsMissingConnection(err error) bool {
	return errors.Is(err, ErrMissingConnection)
}

// IsHandlerError checks if an error was reported by a node handler.
func IsHandlerError(err error) bool {
	return errors.Is(err, ErrHandlerFailed)
}
