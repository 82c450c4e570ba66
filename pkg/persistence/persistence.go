// Package persistence provides the data storage abstraction for scenarios,
// connections and the automation log.
package persistence

import (
	"context"

	"github.com/dukex/scenarios/pkg/models"
)

type Persistence interface {
	ScenarioRepository() ScenarioRepository
	NodeRepository() NodeRepository
	EdgeRepository() EdgeRepository
	ConnectionRepository() ConnectionRepository
	LogRepository() LogRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ScenarioRepository stores scenario records. Deleting a scenario removes its
// nodes and edges.
type ScenarioRepository interface {
	Save(ctx context.Context, scenario *models.Scenario) error
	GetByID(ctx context.Context, id string) (*models.Scenario, error)
	List(ctx context.Context, ownerID string) ([]*models.Scenario, error)
	Delete(ctx context.Context, id string) error
}

// NodeRepository stores the node instances of scenarios.
type NodeRepository interface {
	SaveNode(ctx context.Context, node *models.ScenarioNode) error
	GetNode(ctx context.Context, scenarioID, nodeID string) (*models.ScenarioNode, error)
	ListNodes(ctx context.Context, scenarioID string) ([]*models.ScenarioNode, error)
	DeleteNode(ctx context.Context, scenarioID, nodeID string) error
}

// EdgeRepository stores the edges between nodes of one scenario.
type EdgeRepository interface {
	SaveEdge(ctx context.Context, edge *models.ScenarioNodeConnection) error
	GetEdge(ctx context.Context, scenarioID, edgeID string) (*models.ScenarioNodeConnection, error)
	ListEdges(ctx context.Context, scenarioID string) ([]*models.ScenarioNodeConnection, error)
	DeleteEdge(ctx context.Context, scenarioID, edgeID string) error
}

// ConnectionRepository stores credential sets. The ciphertext is always
// written as a whole.
type ConnectionRepository interface {
	SaveConnection(ctx context.Context, connection *models.Connection) error
	GetConnection(ctx context.Context, id string) (*models.Connection, error)
	ListConnections(ctx context.Context, ownerID string) ([]*models.Connection, error)
	DeleteConnection(ctx context.Context, id string) error
}

// LogRepository is the append-only automation log store. Complete is the only
// mutation allowed on an existing entry and only while it is running.
type LogRepository interface {
	Append(ctx context.Context, entry *models.AutomationLogEntry) error
	Complete(ctx context.Context, id string, completion models.LogCompletion) (*models.AutomationLogEntry, error)
	Get(ctx context.Context, id string) (*models.AutomationLogEntry, error)
	Query(ctx context.Context, filter models.LogFilter) ([]*models.AutomationLogEntry, error)
}

// LoadGraph reads the node and edge snapshot of one scenario.
func LoadGraph(ctx context.Context, p Persistence, scenarioID string) (*models.ScenarioGraph, error) {
	nodes, err := p.NodeRepository().ListNodes(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	edges, err := p.EdgeRepository().ListEdges(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	return &models.ScenarioGraph{ScenarioID: scenarioID, Nodes: nodes, Edges: edges}, nil
}
