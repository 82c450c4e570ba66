// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInvalidStatus           = errors.New("invalid scenario status")
	ErrInvalidSchedule         = errors.New("invalid schedule expression")
	ErrEmptyOwnerID            = errors.New("owner ID cannot be empty")
	ErrScenarioNameRequired    = errors.New("scenario name is required")
	ErrEdgeOutsideScenario     = errors.New("edge endpoints must be nodes of the same scenario")
	ErrCredentialsRequired     = errors.New("connection credentials are required")
	ErrInvalidConnectionStatus = errors.New("invalid connection status")

	// Business Logic Conflicts (409 Conflict).
	ErrSystemNode     = errors.New("system nodes cannot be deleted")
	ErrLockedProperty = errors.New("node property is locked")
	ErrRunFinished    = errors.New("run already finished")

	// Lookups (404 Not Found).
	ErrNodeTypeNotFound = errors.New("node type not found")

	// ErrVaultUnavailable indicates connection secrets cannot be sealed because
	// no vault key is configured (503 Service Unavailable).
	ErrVaultUnavailable = errors.New("credential vault is not configured")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidSchedule) ||
		errors.Is(err, ErrEmptyOwnerID) ||
		errors.Is(err, ErrScenarioNameRequired) ||
		errors.Is(err, ErrEdgeOutsideScenario) ||
		errors.Is(err, ErrCredentialsRequired) ||
		errors.Is(err, ErrInvalidConnectionStatus)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSystemNode) ||
		errors.Is(err, ErrLockedProperty) ||
		errors.Is(err, ErrRunFinished) ||
		errors.Is(err, ErrScenarioInactive)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
