package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/scenarios/pkg/graph"
	"github.com/dukex/scenarios/pkg/mapping"
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/registry"
	"github.com/google/uuid"
)

// Editable node properties, as named in ScenarioNode.LockedProperties.
const (
	PropertyLabel        = "label"
	PropertyConnection   = "connection_id"
	PropertyConfig       = "config"
	PropertyInputMapping = "input_mapping"
	PropertyOrder        = "order"
)

// CreateNodeRequest represents the request to add a node to a scenario.
type CreateNodeRequest struct {
	IntegrationNodeID string
	Label             string
	ConnectionID      *string
	Config            map[string]any
	InputMapping      map[string]any
	IsSystem          bool
	LockedProperties  []string
	Order             int
}

// UpdateNodeRequest holds the node properties to change. Nil fields are left as is.
type UpdateNodeRequest struct {
	Label        *string
	ConnectionID *string
	Config       map[string]any
	InputMapping map[string]any
	Order        *int
}

// CreateEdgeRequest represents the request to connect two nodes.
type CreateEdgeRequest struct {
	SourceNodeID string
	TargetNodeID string
	Mapping      []models.FieldMapping
	Label        string
	Branch       string
	Order        int

	// Validate runs the graph validator after the edit.
	Validate bool
}

// Graph edits the nodes and edges of scenarios.
type Graph struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	catalog     *mapping.Catalog
}

// NewGraph creates a new graph editing service.
func NewGraph(persistence persistence.Persistence, registry *registry.Registry, catalog *mapping.Catalog) *Graph {
	return &Graph{
		persistence: persistence,
		registry:    registry,
		catalog:     catalog,
	}
}

// ListNodes returns the nodes of a scenario.
func (g *Graph) ListNodes(ctx context.Context, scenarioID string) ([]*models.ScenarioNode, error) {
	if _, err := g.persistence.ScenarioRepository().GetByID(ctx, scenarioID); err != nil {
		return nil, err
	}

	return g.persistence.NodeRepository().ListNodes(ctx, scenarioID)
}

// ListEdges returns the edges of a scenario.
func (g *Graph) ListEdges(ctx context.Context, scenarioID string) ([]*models.ScenarioNodeConnection, error) {
	if _, err := g.persistence.ScenarioRepository().GetByID(ctx, scenarioID); err != nil {
		return nil, err
	}

	return g.persistence.EdgeRepository().ListEdges(ctx, scenarioID)
}

// GetNode retrieves a specific node of a scenario.
func (g *Graph) GetNode(ctx context.Context, scenarioID, nodeID string) (*models.ScenarioNode, error) {
	return g.persistence.NodeRepository().GetNode(ctx, scenarioID, nodeID)
}

// CreateNode adds a node instance of a registered node type.
func (g *Graph) CreateNode(ctx context.Context, scenarioID string, req *CreateNodeRequest) (*models.ScenarioNode, error) {
	if _, err := g.persistence.ScenarioRepository().GetByID(ctx, scenarioID); err != nil {
		return nil, err
	}

	if req.Label == "" {
		return nil, NewValidationError("CreateNode", "LABEL_REQUIRED", "node label is required", ErrInvalidRequest)
	}

	if _, ok := g.registry.GetByIdentifier(req.IntegrationNodeID); !ok {
		return nil, &ServiceError{
			Op:      "CreateNode",
			Code:    "UNKNOWN_NODE_TYPE",
			Message: fmt.Sprintf("node type '%s' is not registered", req.IntegrationNodeID),
			Err:     ErrInvalidRequest,
		}
	}

	now := time.Now().UTC()
	node := &models.ScenarioNode{
		ID:                uuid.New().String(),
		ScenarioID:        scenarioID,
		IntegrationNodeID: req.IntegrationNodeID,
		Label:             req.Label,
		ConnectionID:      req.ConnectionID,
		Config:            req.Config,
		InputMapping:      req.InputMapping,
		IsSystem:          req.IsSystem,
		LockedProperties:  req.LockedProperties,
		Order:             req.Order,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if node.Config == nil {
		node.Config = make(map[string]any)
	}

	err := g.persistence.NodeRepository().SaveNode(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("failed to save node: %w", err)
	}

	return node, nil
}

// UpdateNode changes the requested properties of a node. Touching a locked
// property rejects the whole update.
func (g *Graph) UpdateNode(ctx context.Context, scenarioID, nodeID string, req *UpdateNodeRequest) (*models.ScenarioNode, error) {
	node, err := g.persistence.NodeRepository().GetNode(ctx, scenarioID, nodeID)
	if err != nil {
		return nil, err
	}

	changes := map[string]bool{
		PropertyLabel:        req.Label != nil,
		PropertyConnection:   req.ConnectionID != nil,
		PropertyConfig:       req.Config != nil,
		PropertyInputMapping: req.InputMapping != nil,
		PropertyOrder:        req.Order != nil,
	}

	for property, changed := range changes {
		if changed && node.IsLocked(property) {
			return nil, &ServiceError{
				Op:      "UpdateNode",
				Code:    "LOCKED_PROPERTY",
				Message: fmt.Sprintf("property '%s' of node %s is locked", property, nodeID),
				Err:     ErrLockedProperty,
			}
		}
	}

	if req.Label != nil {
		node.Label = *req.Label
	}

	if req.ConnectionID != nil {
		node.ConnectionID = req.ConnectionID
		if *req.ConnectionID == "" {
			node.ConnectionID = nil
		}
	}

	if req.Config != nil {
		node.Config = req.Config
	}

	if req.InputMapping != nil {
		node.InputMapping = req.InputMapping
	}

	if req.Order != nil {
		node.Order = *req.Order
	}

	node.UpdatedAt = time.Now().UTC()

	err = g.persistence.NodeRepository().SaveNode(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	return node, nil
}

// DeleteNode removes a node and every edge touching it. System nodes cannot be deleted.
func (g *Graph) DeleteNode(ctx context.Context, scenarioID, nodeID string) error {
	node, err := g.persistence.NodeRepository().GetNode(ctx, scenarioID, nodeID)
	if err != nil {
		return err
	}

	if node.IsSystem {
		return &ServiceError{
			Op:      "DeleteNode",
			Code:    "SYSTEM_NODE",
			Message: fmt.Sprintf("node %s is a system node", nodeID),
			Err:     ErrSystemNode,
		}
	}

	edges, err := g.persistence.EdgeRepository().ListEdges(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("failed to list edges: %w", err)
	}

	for _, edge := range edges {
		if edge.SourceNodeID != nodeID && edge.TargetNodeID != nodeID {
			continue
		}

		err = g.persistence.EdgeRepository().DeleteEdge(ctx, scenarioID, edge.ID)
		if err != nil && !persistence.IsEdgeNotFound(err) {
			return fmt.Errorf("failed to delete edge %s: %w", edge.ID, err)
		}
	}

	err = g.persistence.NodeRepository().DeleteNode(ctx, scenarioID, nodeID)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}

	return nil
}

// CreateEdge connects two nodes of the same scenario. Transformation ids in
// the mapping must exist. When requested, the validator result of the edited
// graph is returned alongside the edge; an invalid graph does not undo the edit.
func (g *Graph) CreateEdge(ctx context.Context, scenarioID string, req *CreateEdgeRequest) (*models.ScenarioNodeConnection, *graph.ValidationResult, error) {
	for _, nodeID := range []string{req.SourceNodeID, req.TargetNodeID} {
		_, err := g.persistence.NodeRepository().GetNode(ctx, scenarioID, nodeID)
		if persistence.IsNotFound(err) {
			return nil, nil, &ServiceError{
				Op:      "CreateEdge",
				Code:    "EDGE_OUTSIDE_SCENARIO",
				Message: fmt.Sprintf("node %s is not part of scenario %s", nodeID, scenarioID),
				Err:     ErrEdgeOutsideScenario,
			}
		}

		if err != nil {
			return nil, nil, err
		}
	}

	for _, fm := range req.Mapping {
		if fm.SourceField == "" || fm.TargetField == "" {
			return nil, nil, NewValidationError("CreateEdge", "INVALID_MAPPING", "mapping requires source and target fields", ErrInvalidRequest)
		}

		if fm.TransformationFunctionID == "" {
			continue
		}

		if _, err := g.catalog.Get(fm.TransformationFunctionID); err != nil {
			return nil, nil, NewValidationError("CreateEdge", "UNKNOWN_TRANSFORMATION", err.Error(), ErrInvalidRequest)
		}
	}

	edge := &models.ScenarioNodeConnection{
		ID:           uuid.New().String(),
		ScenarioID:   scenarioID,
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
		Mapping:      req.Mapping,
		Label:        req.Label,
		Branch:       req.Branch,
		Order:        req.Order,
		CreatedAt:    time.Now().UTC(),
	}

	err := g.persistence.EdgeRepository().SaveEdge(ctx, edge)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save edge: %w", err)
	}

	if !req.Validate {
		return edge, nil, nil
	}

	loaded, err := persistence.LoadGraph(ctx, g.persistence, scenarioID)
	if err != nil {
		return edge, nil, err
	}

	result := graph.Validate(loaded)

	return edge, &result, nil
}

// DeleteEdge removes an edge from a scenario.
func (g *Graph) DeleteEdge(ctx context.Context, scenarioID, edgeID string) error {
	return g.persistence.EdgeRepository().DeleteEdge(ctx, scenarioID, edgeID)
}
