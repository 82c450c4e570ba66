package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dukex/scenarios/pkg/models"
)

// Strategy names how an execution plan derived its order.
type Strategy string

const (
	// StrategyLinear orders a non-branching scenario by the nodes' order
	// field, as long as that order agrees with the edges.
	StrategyLinear Strategy = "linear"

	// StrategyGraph orders a branching scenario topologically.
	StrategyGraph Strategy = "graph"
)

// ExecutionPlan is the validated, ordered view of a scenario graph the run
// executor walks. It is computed once per run.
type ExecutionPlan struct {
	ScenarioID string
	Strategy   Strategy
	Order      []*models.ScenarioNode

	inbound  map[string][]*models.ScenarioNodeConnection
	outbound map[string][]*models.ScenarioNodeConnection
}

// Inbound returns the edges into a node in tie-break order.
func (p *ExecutionPlan) Inbound(nodeID string) []*models.ScenarioNodeConnection {
	return p.inbound[nodeID]
}

// Outbound returns the edges out of a node in tie-break order.
func (p *ExecutionPlan) Outbound(nodeID string) []*models.ScenarioNodeConnection {
	return p.outbound[nodeID]
}

// IsRoot reports whether a node has no incoming edges.
func (p *ExecutionPlan) IsRoot(nodeID string) bool {
	return len(p.inbound[nodeID]) == 0
}

// IDs returns the node ids in execution order.
func (p *ExecutionPlan) IDs() []string {
	ids := make([]string, len(p.Order))
	for i, node := range p.Order {
		ids[i] = node.ID
	}

	return ids
}

// HasBranching reports whether any edge carries a non-default branch.
func HasBranching(g *models.ScenarioGraph) bool {
	return slices.ContainsFunc(g.Edges, func(e *models.ScenarioNodeConnection) bool {
		return !e.IsDefaultBranch()
	})
}

// NewPlan validates a graph and derives its execution plan. Scenarios without
// any edge are treated as a legacy linear chain in node order.
func NewPlan(g *models.ScenarioGraph) (*ExecutionPlan, error) {
	if len(g.Edges) == 0 && len(g.Nodes) > 1 {
		g = withLinearChain(g)
	}

	if result := Validate(g); !result.Valid {
		return nil, result.Err()
	}

	idx := newIndex(g)

	plan := &ExecutionPlan{
		ScenarioID: g.ScenarioID,
		Strategy:   StrategyGraph,
		inbound:    idx.inbound,
		outbound:   idx.outbound,
	}

	order, err := idx.topologicalOrder()
	if err != nil {
		return nil, err
	}

	plan.Order = order

	if !HasBranching(g) {
		plan.Strategy = StrategyLinear

		if idx.respectsEdges(idx.sorted) {
			plan.Order = idx.sorted
		}
	}

	return plan, nil
}

// TopologicalOrder validates a graph and returns its Kahn order.
func TopologicalOrder(g *models.ScenarioGraph) ([]*models.ScenarioNode, error) {
	if result := Validate(g); !result.Valid {
		return nil, result.Err()
	}

	return newIndex(g).topologicalOrder()
}

type readyNode struct {
	node      *models.ScenarioNode
	edgeOrder int
}

// topologicalOrder runs Kahn's algorithm. Ready nodes are taken by ascending
// node order, then the order of the edge that released them, then id.
func (idx *index) topologicalOrder() ([]*models.ScenarioNode, error) {
	inDegree := make(map[string]int, len(idx.nodes))
	for id := range idx.nodes {
		inDegree[id] = len(idx.inbound[id])
	}

	var ready []readyNode

	for _, node := range idx.roots() {
		ready = append(ready, readyNode{node: node})
	}

	order := make([]*models.ScenarioNode, 0, len(idx.nodes))

	for len(ready) > 0 {
		slices.SortFunc(ready, func(a, b readyNode) int {
			return cmp.Or(
				cmp.Compare(a.node.Order, b.node.Order),
				cmp.Compare(a.edgeOrder, b.edgeOrder),
				cmp.Compare(a.node.ID, b.node.ID),
			)
		})

		next := ready[0]
		ready = ready[1:]
		order = append(order, next.node)

		for _, edge := range idx.outbound[next.node.ID] {
			inDegree[edge.TargetNodeID]--
			if inDegree[edge.TargetNodeID] == 0 {
				ready = append(ready, readyNode{node: idx.nodes[edge.TargetNodeID], edgeOrder: edge.Order})
			}
		}
	}

	if len(order) != len(idx.nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes ordered", ErrCyclicGraph, len(order), len(idx.nodes))
	}

	return order, nil
}

// respectsEdges reports whether every edge points forward in the given order.
func (idx *index) respectsEdges(order []*models.ScenarioNode) bool {
	position := make(map[string]int, len(order))
	for i, node := range order {
		position[node.ID] = i
	}

	for source, edges := range idx.outbound {
		for _, edge := range edges {
			if position[source] >= position[edge.TargetNodeID] {
				return false
			}
		}
	}

	return true
}

// withLinearChain returns a copy of an edgeless graph chained in node order
// with pass-through edges.
func withLinearChain(g *models.ScenarioGraph) *models.ScenarioGraph {
	nodes := slices.Clone(g.Nodes)
	slices.SortFunc(nodes, compareNodes)

	chained := &models.ScenarioGraph{ScenarioID: g.ScenarioID, Nodes: g.Nodes}

	for i := 1; i < len(nodes); i++ {
		chained.Edges = append(chained.Edges, &models.ScenarioNodeConnection{
			ID:           fmt.Sprintf("linear:%s:%s", nodes[i-1].ID, nodes[i].ID),
			ScenarioID:   g.ScenarioID,
			SourceNodeID: nodes[i-1].ID,
			TargetNodeID: nodes[i].ID,
			Order:        i,
		})
	}

	return chained
}
