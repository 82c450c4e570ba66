package models

import (
	"slices"
	"time"
)

// CategoryType represents the category of an integration node definition.
type CategoryType string

const (
	CategoryTypeTrigger   CategoryType = "trigger"
	CategoryTypeAction    CategoryType = "action"
	CategoryTypeTransform CategoryType = "transform"
	CategoryTypeLogic     CategoryType = "logic"
)

// DefaultBranch is the branch key treated the same as an unlabelled edge.
const DefaultBranch = "default"

// IntegrationNodeDefinition describes a node type the executor can dispatch to.
// Schemas are advisory JSON-schema documents kept as strings; the owning handler
// is responsible for rejecting malformed input.
type IntegrationNodeDefinition struct {
	Identifier         string       `json:"identifier"              validate:"required"`
	Name               string       `json:"name"                    validate:"required"`
	Category           CategoryType `json:"category"                validate:"required"`
	IntegrationType    string       `json:"integration_type"`
	Description        string       `json:"description"`
	InputSchema        string       `json:"input_schema,omitempty"`
	OutputSchema       string       `json:"output_schema,omitempty"`
	ConfigSchema       string       `json:"config_schema,omitempty"`
	UIConfig           string       `json:"ui_config,omitempty"`
	Version            string       `json:"version"`
	Deprecated         bool         `json:"deprecated"`
	RequiresConnection bool         `json:"requires_connection"`
	Tags               []string     `json:"tags,omitempty"`
}

// ScenarioNode is an instance of an IntegrationNodeDefinition inside a scenario.
type ScenarioNode struct {
	ID                string         `json:"id"`
	ScenarioID        string         `json:"scenario_id"                 validate:"required"`
	IntegrationNodeID string         `json:"integration_node_id"         validate:"required"`
	Label             string         `json:"label"                       validate:"required,min=1"`
	ConnectionID      *string        `json:"connection_id,omitempty"`
	Config            map[string]any `json:"config"`
	InputMapping      map[string]any `json:"input_mapping,omitempty"`
	OutputSchema      string         `json:"output_schema,omitempty"`
	SampleData        map[string]any `json:"sample_data,omitempty"`
	IsSystem          bool           `json:"is_system"`
	LockedProperties  []string       `json:"locked_properties,omitempty"`
	Order             int            `json:"order"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// IsLocked reports whether the given property may not be edited.
func (n *ScenarioNode) IsLocked(property string) bool {
	return slices.Contains(n.LockedProperties, property)
}

// FieldMapping projects one field of a producing node's output into the
// consuming node's input, optionally through a named transformation.
type FieldMapping struct {
	SourceField              string         `json:"source_field"                         validate:"required"`
	TargetField              string         `json:"target_field"                         validate:"required"`
	TransformationFunctionID string         `json:"transformation_function_id,omitempty"`
	Parameters               map[string]any `json:"parameters,omitempty"`
}

// ScenarioNodeConnection is a directed edge between two nodes of one scenario.
type ScenarioNodeConnection struct {
	ID           string         `json:"id"`
	ScenarioID   string         `json:"scenario_id"      validate:"required"`
	SourceNodeID string         `json:"source_node_id"   validate:"required"`
	TargetNodeID string         `json:"target_node_id"   validate:"required"`
	Mapping      []FieldMapping `json:"mapping,omitempty"`
	Label        string         `json:"label,omitempty"`
	Branch       string         `json:"branch,omitempty"`
	Order        int            `json:"order"`
	CreatedAt    time.Time      `json:"created_at"`
}

// IsDefaultBranch reports whether the edge is always taken regardless of the
// source node's branch outcome.
func (e *ScenarioNodeConnection) IsDefaultBranch() bool {
	return e.Branch == "" || e.Branch == DefaultBranch
}

// Follows reports whether the edge is taken for the given branch outcome.
func (e *ScenarioNodeConnection) Follows(outcome string) bool {
	if e.IsDefaultBranch() {
		return true
	}

	return e.Branch == outcome
}
