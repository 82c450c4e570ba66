package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
)

// NodeRepository handles scenario node database operations.
type NodeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository.
func NewNodeRepository(db *sql.DB, logger *slog.Logger) *NodeRepository {
	return &NodeRepository{db: db, logger: logger}
}

const nodeColumns = `
			scenario_id
		  , id
		  , integration_node_id
		  , label
		  , connection_id
		  , config
		  , input_mapping
		  , output_schema
		  , sample_data
		  , is_system
		  , locked_properties
		  , node_order
		  , created_at
		  , updated_at`

func (r *NodeRepository) SaveNode(ctx context.Context, node *models.ScenarioNode) error {
	configJSON, err := marshalJSON("config", node.Config)
	if err != nil {
		return err
	}

	inputMappingJSON, err := marshalJSON("input mapping", node.InputMapping)
	if err != nil {
		return err
	}

	sampleDataJSON, err := marshalJSON("sample data", node.SampleData)
	if err != nil {
		return err
	}

	lockedJSON, err := marshalJSON("locked properties", node.LockedProperties)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scenario_nodes (` + nodeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (scenario_id, id) DO UPDATE SET
			integration_node_id = EXCLUDED.integration_node_id,
			label = EXCLUDED.label,
			connection_id = EXCLUDED.connection_id,
			config = EXCLUDED.config,
			input_mapping = EXCLUDED.input_mapping,
			output_schema = EXCLUDED.output_schema,
			sample_data = EXCLUDED.sample_data,
			is_system = EXCLUDED.is_system,
			locked_properties = EXCLUDED.locked_properties,
			node_order = EXCLUDED.node_order,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		node.ScenarioID,
		node.ID,
		node.IntegrationNodeID,
		node.Label,
		node.ConnectionID,
		configJSON,
		inputMappingJSON,
		node.OutputSchema,
		sampleDataJSON,
		node.IsSystem,
		lockedJSON,
		node.Order,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		return &persistence.NodeError{Op: "SaveNode", ScenarioID: node.ScenarioID, NodeID: node.ID, Err: err}
	}

	return nil
}

func (r *NodeRepository) GetNode(ctx context.Context, scenarioID, nodeID string) (*models.ScenarioNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM scenario_nodes WHERE scenario_id = $1 AND id = $2`

	node, err := scanNode(r.db.QueryRowContext(ctx, query, scenarioID, nodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrNodeNotFound
		}

		return nil, &persistence.NodeError{Op: "GetNode", ScenarioID: scenarioID, NodeID: nodeID, Err: err}
	}

	return node, nil
}

func (r *NodeRepository) ListNodes(ctx context.Context, scenarioID string) ([]*models.ScenarioNode, error) {
	query := `SELECT ` + nodeColumns + `
		FROM scenario_nodes
		WHERE scenario_id = $1
		ORDER BY node_order, id
	`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario nodes: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	nodes := make([]*models.ScenarioNode, 0)

	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario node: %w", err)
		}

		nodes = append(nodes, node)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating scenario nodes: %w", err)
	}

	return nodes, nil
}

func (r *NodeRepository) DeleteNode(ctx context.Context, scenarioID, nodeID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scenario_nodes WHERE scenario_id = $1 AND id = $2", scenarioID, nodeID)

	return checkAffected(result, err, &persistence.NodeError{Op: "DeleteNode", ScenarioID: scenarioID, NodeID: nodeID, Err: persistence.ErrNodeNotFound})
}

func scanNode(row scanner) (*models.ScenarioNode, error) {
	var (
		node             models.ScenarioNode
		connectionID     sql.NullString
		outputSchema     sql.NullString
		configJSON       []byte
		inputMappingJSON []byte
		sampleDataJSON   []byte
		lockedJSON       []byte
	)

	err := row.Scan(
		&node.ScenarioID,
		&node.ID,
		&node.IntegrationNodeID,
		&node.Label,
		&connectionID,
		&configJSON,
		&inputMappingJSON,
		&outputSchema,
		&sampleDataJSON,
		&node.IsSystem,
		&lockedJSON,
		&node.Order,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if connectionID.Valid {
		node.ConnectionID = &connectionID.String
	}

	node.OutputSchema = outputSchema.String

	for name, target := range map[string]struct {
		data  []byte
		value any
	}{
		"config":            {configJSON, &node.Config},
		"input mapping":     {inputMappingJSON, &node.InputMapping},
		"sample data":       {sampleDataJSON, &node.SampleData},
		"locked properties": {lockedJSON, &node.LockedProperties},
	} {
		if err := unmarshalJSON(name, target.data, target.value); err != nil {
			return nil, err
		}
	}

	return &node, nil
}

// EdgeRepository handles scenario edge database operations.
type EdgeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEdgeRepository creates a new edge repository.
func NewEdgeRepository(db *sql.DB, logger *slog.Logger) *EdgeRepository {
	return &EdgeRepository{db: db, logger: logger}
}

const edgeColumns = `
			scenario_id
		  , id
		  , source_node_id
		  , target_node_id
		  , mapping
		  , label
		  , branch
		  , edge_order
		  , created_at`

func (r *EdgeRepository) SaveEdge(ctx context.Context, edge *models.ScenarioNodeConnection) error {
	mappingJSON, err := marshalJSON("mapping", edge.Mapping)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scenario_edges (` + edgeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (scenario_id, id) DO UPDATE SET
			source_node_id = EXCLUDED.source_node_id,
			target_node_id = EXCLUDED.target_node_id,
			mapping = EXCLUDED.mapping,
			label = EXCLUDED.label,
			branch = EXCLUDED.branch,
			edge_order = EXCLUDED.edge_order
	`

	_, err = r.db.ExecContext(ctx, query,
		edge.ScenarioID,
		edge.ID,
		edge.SourceNodeID,
		edge.TargetNodeID,
		mappingJSON,
		edge.Label,
		edge.Branch,
		edge.Order,
		edge.CreatedAt,
	)
	if err != nil {
		return &persistence.NodeError{Op: "SaveEdge", ScenarioID: edge.ScenarioID, NodeID: edge.ID, Err: err}
	}

	return nil
}

func (r *EdgeRepository) GetEdge(ctx context.Context, scenarioID, edgeID string) (*models.ScenarioNodeConnection, error) {
	query := `SELECT ` + edgeColumns + ` FROM scenario_edges WHERE scenario_id = $1 AND id = $2`

	edge, err := scanEdge(r.db.QueryRowContext(ctx, query, scenarioID, edgeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrEdgeNotFound
		}

		return nil, &persistence.NodeError{Op: "GetEdge", ScenarioID: scenarioID, NodeID: edgeID, Err: err}
	}

	return edge, nil
}

func (r *EdgeRepository) ListEdges(ctx context.Context, scenarioID string) ([]*models.ScenarioNodeConnection, error) {
	query := `SELECT ` + edgeColumns + `
		FROM scenario_edges
		WHERE scenario_id = $1
		ORDER BY edge_order, id
	`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario edges: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	edges := make([]*models.ScenarioNodeConnection, 0)

	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario edge: %w", err)
		}

		edges = append(edges, edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating scenario edges: %w", err)
	}

	return edges, nil
}

func (r *EdgeRepository) DeleteEdge(ctx context.Context, scenarioID, edgeID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scenario_edges WHERE scenario_id = $1 AND id = $2", scenarioID, edgeID)

	return checkAffected(result, err, &persistence.NodeError{Op: "DeleteEdge", ScenarioID: scenarioID, NodeID: edgeID, Err: persistence.ErrEdgeNotFound})
}

func scanEdge(row scanner) (*models.ScenarioNodeConnection, error) {
	var (
		edge        models.ScenarioNodeConnection
		mappingJSON []byte
		label       sql.NullString
		branch      sql.NullString
	)

	err := row.Scan(
		&edge.ScenarioID,
		&edge.ID,
		&edge.SourceNodeID,
		&edge.TargetNodeID,
		&mappingJSON,
		&label,
		&branch,
		&edge.Order,
		&edge.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	edge.Label = label.String
	edge.Branch = branch.String

	err = unmarshalJSON("mapping", mappingJSON, &edge.Mapping)
	if err != nil {
		return nil, err
	}

	return &edge, nil
}

// checkAffected converts a zero-row delete into notFound.
func checkAffected(result sql.Result, err error, notFound error) error {
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return notFound
	}

	return nil
}
