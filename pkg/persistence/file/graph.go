package file

import (
	"cmp"
	"context"
	"slices"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
)

// NodeRepository stores nodes under {root}/nodes/{scenarioID}.
type NodeRepository struct {
	p *Persistence
}

func (r *NodeRepository) SaveNode(_ context.Context, node *models.ScenarioNode) error {
	if err := validateID(node.ScenarioID); err != nil {
		return err
	}

	if err := validateID(node.ID); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return writeJSON(r.p.path("nodes", node.ScenarioID, node.ID+".json"), node)
}

func (r *NodeRepository) GetNode(_ context.Context, scenarioID, nodeID string) (*models.ScenarioNode, error) {
	if err := validateID(scenarioID); err != nil {
		return nil, err
	}

	if err := validateID(nodeID); err != nil {
		return nil, err
	}

	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var node models.ScenarioNode

	notFound := &persistence.NodeError{Op: "GetNode", ScenarioID: scenarioID, NodeID: nodeID, Err: persistence.ErrNodeNotFound}

	err := readJSON(r.p.path("nodes", scenarioID, nodeID+".json"), &node, notFound)
	if err != nil {
		return nil, err
	}

	return &node, nil
}

// ListNodes returns the nodes of a scenario ordered by order, then id.
func (r *NodeRepository) ListNodes(_ context.Context, scenarioID string) ([]*models.ScenarioNode, error) {
	if err := validateID(scenarioID); err != nil {
		return nil, err
	}

	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	nodes, err := readAll[models.ScenarioNode](r.p.path("nodes", scenarioID))
	if err != nil {
		return nil, err
	}

	slices.SortFunc(nodes, func(a, b *models.ScenarioNode) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})

	return nodes, nil
}

func (r *NodeRepository) DeleteNode(_ context.Context, scenarioID, nodeID string) error {
	if err := validateID(scenarioID); err != nil {
		return err
	}

	if err := validateID(nodeID); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	notFound := &persistence.NodeError{Op: "DeleteNode", ScenarioID: scenarioID, NodeID: nodeID, Err: persistence.ErrNodeNotFound}

	return removeFile(r.p.path("nodes", scenarioID, nodeID+".json"), notFound)
}

// EdgeRepository stores edges under {root}/edges/{scenarioID}.
type EdgeRepository struct {
	p *Persistence
}

func (r *EdgeRepository) SaveEdge(_ context.Context, edge *models.ScenarioNodeConnection) error {
	if err := validateID(edge.ScenarioID); err != nil {
		return err
	}

	if err := validateID(edge.ID); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return writeJSON(r.p.path("edges", edge.ScenarioID, edge.ID+".json"), edge)
}

func (r *EdgeRepository) GetEdge(_ context.Context, scenarioID, edgeID string) (*models.ScenarioNodeConnection, error) {
	if err := validateID(scenarioID); err != nil {
		return nil, err
	}

	if err := validateID(edgeID); err != nil {
		return nil, err
	}

	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var edge models.ScenarioNodeConnection

	notFound := &persistence.NodeError{Op: "GetEdge", ScenarioID: scenarioID, NodeID: edgeID, Err: persistence.ErrEdgeNotFound}

	err := readJSON(r.p.path("edges", scenarioID, edgeID+".json"), &edge, notFound)
	if err != nil {
		return nil, err
	}

	return &edge, nil
}

// ListEdges returns the edges of a scenario ordered by order, then id.
func (r *EdgeRepository) ListEdges(_ context.Context, scenarioID string) ([]*models.ScenarioNodeConnection, error) {
	if err := validateID(scenarioID); err != nil {
		return nil, err
	}

	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	edges, err := readAll[models.ScenarioNodeConnection](r.p.path("edges", scenarioID))
	if err != nil {
		return nil, err
	}

	slices.SortFunc(edges, func(a, b *models.ScenarioNodeConnection) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})

	return edges, nil
}

func (r *EdgeRepository) DeleteEdge(_ context.Context, scenarioID, edgeID string) error {
	if err := validateID(scenarioID); err != nil {
		return err
	}

	if err := validateID(edgeID); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	notFound := &persistence.NodeError{Op: "DeleteEdge", ScenarioID: scenarioID, NodeID: edgeID, Err: persistence.ErrEdgeNotFound}

	return removeFile(r.p.path("edges", scenarioID, edgeID+".json"), notFound)
}
