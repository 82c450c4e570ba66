// Package models defines the core domain models for scenario-based integration automation.
package models

import "time"

// ScenarioStatus represents whether a scenario is picked up by schedulers.
type ScenarioStatus string

const (
	ScenarioStatusActive   ScenarioStatus = "active"
	ScenarioStatusInactive ScenarioStatus = "inactive"
)

// Scenario is a named, persisted automation graph. Nodes and edges are stored
// separately and loaded through their own repositories.
type Scenario struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"                validate:"required,min=3"`
	Description string         `json:"description"`
	OwnerID     string         `json:"owner_id"            validate:"required"`
	Status      ScenarioStatus `json:"status"              validate:"required,oneof=active inactive"`
	Schedule    string         `json:"schedule,omitempty"` // Optional cron expression
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsActive reports whether the scenario should be considered by the scheduler.
func (s *Scenario) IsActive() bool {
	return s.Status == ScenarioStatusActive
}

// ScenarioGraph is the persisted node/edge set of one scenario, read as a snapshot.
type ScenarioGraph struct {
	ScenarioID string                    `json:"scenario_id"`
	Nodes      []*ScenarioNode           `json:"nodes"`
	Edges      []*ScenarioNodeConnection `json:"edges"`
}
