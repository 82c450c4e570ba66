// Package web provides HTTP request and response types for the scenario API.
package web

import (
	"time"

	"github.com/dukex/scenarios/pkg/graph"
	"github.com/dukex/scenarios/pkg/models"
)

// CreateScenarioRequest represents the request body for creating a new scenario.
type CreateScenarioRequest struct {
	Name        string `json:"name"               validate:"required,min=3"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"           validate:"required"`
	Status      string `json:"status,omitempty"   validate:"omitempty,oneof=active inactive"`
	Schedule    string `json:"schedule,omitempty"`
}

// UpdateScenarioRequest represents the request body for updating an existing scenario.
// All fields are optional to support partial updates.
type UpdateScenarioRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"      validate:"omitempty,oneof=active inactive"`
	Schedule    *string `json:"schedule,omitempty"`
}

// CreateNodeRequest represents the request body for adding a node to a scenario.
type CreateNodeRequest struct {
	IntegrationNodeID string         `json:"integration_node_id"          validate:"required"`
	Label             string         `json:"label"                        validate:"required,min=1"`
	ConnectionID      *string        `json:"connection_id,omitempty"`
	Config            map[string]any `json:"config"`
	InputMapping      map[string]any `json:"input_mapping,omitempty"`
	IsSystem          bool           `json:"is_system"`
	LockedProperties  []string       `json:"locked_properties,omitempty" validate:"dive,oneof=label connection_id config input_mapping order"`
	Order             int            `json:"order"`
}

// UpdateNodeRequest represents the request body for updating a node. Omitted
// fields are left unchanged.
type UpdateNodeRequest struct {
	Label        *string        `json:"label,omitempty"         validate:"omitempty,min=1"`
	ConnectionID *string        `json:"connection_id,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
	InputMapping map[string]any `json:"input_mapping,omitempty"`
	Order        *int           `json:"order,omitempty"`
}

// CreateEdgeRequest represents the request body for connecting two nodes.
type CreateEdgeRequest struct {
	SourceNodeID string                `json:"source_node_id"    validate:"required"`
	TargetNodeID string                `json:"target_node_id"    validate:"required,nefield=SourceNodeID"`
	Mapping      []models.FieldMapping `json:"mapping,omitempty" validate:"dive"`
	Label        string                `json:"label,omitempty"`
	Branch       string                `json:"branch,omitempty"`
	Order        int                   `json:"order"`
	Validate     bool                  `json:"validate"`
}

// EdgeResponse is an edge, with the validator result when it was requested.
type EdgeResponse struct {
	Edge       *models.ScenarioNodeConnection `json:"edge"`
	Validation *graph.ValidationResult        `json:"validation,omitempty"`
}

// RunScenarioRequest represents the request body for starting a run.
type RunScenarioRequest struct {
	TriggerPayload map[string]any `json:"trigger_payload,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
}

// RunScenarioResponse is returned when a run was accepted.
type RunScenarioResponse struct {
	RunID string `json:"run_id"`
}

// CreateConnectionRequest represents the request body for storing a credential set.
type CreateConnectionRequest struct {
	AppID       string            `json:"app_id"               validate:"required"`
	Name        string            `json:"name"                 validate:"required"`
	OwnerID     string            `json:"owner_id"             validate:"required"`
	Credentials map[string]string `json:"credentials"          validate:"required,min=1"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

// RotateConnectionRequest replaces the credentials of a connection.
type RotateConnectionRequest struct {
	Credentials map[string]string `json:"credentials"          validate:"required,min=1"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

// SetConnectionStatusRequest changes the health status of a connection.
type SetConnectionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=connected error disconnected"`
}

// ValidateConfigRequest carries a node config to check against its schema.
type ValidateConfigRequest struct {
	Config map[string]any `json:"config"`
}

// ValidateConfigResponse lists schema violations.
type ValidateConfigResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}
