// Package graph validates scenario graphs and derives their execution order.
package graph

import (
	"cmp"
	"errors"
	"slices"

	"github.com/dukex/scenarios/pkg/models"
)

// ValidationResult is the outcome of validating one scenario graph.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`

	// Issues holds the typed errors behind Errors.
	Issues []error `json:"-"`
}

// Err joins the issues, or returns nil for a valid graph.
func (r ValidationResult) Err() error {
	return errors.Join(r.Issues...)
}

func (r *ValidationResult) add(err error) {
	r.Valid = false
	r.Issues = append(r.Issues, err)
	r.Errors = append(r.Errors, err.Error())
}

// Validate checks a graph for emptiness, dangling edges, cycles and entry
// points. It is pure and idempotent.
func Validate(g *models.ScenarioGraph) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	if len(g.Nodes) == 0 {
		result.add(ErrEmptyScenario)

		return result
	}

	idx := newIndex(g)

	for _, edge := range idx.dangling {
		nodeID := edge.SourceNodeID
		if _, ok := idx.nodes[nodeID]; ok {
			nodeID = edge.TargetNodeID
		}

		result.add(&DanglingEdgeError{EdgeID: edge.ID, NodeID: nodeID})
	}

	if cycle := idx.findCycle(); cycle != nil {
		result.add(cycle)
	}

	if len(idx.roots()) == 0 {
		result.add(ErrNoEntryPoint)
	}

	return result
}

// index is an adjacency view of one scenario graph with edges sorted for
// deterministic traversal.
type index struct {
	nodes    map[string]*models.ScenarioNode
	sorted   []*models.ScenarioNode
	outbound map[string][]*models.ScenarioNodeConnection
	inbound  map[string][]*models.ScenarioNodeConnection
	dangling []*models.ScenarioNodeConnection
}

func compareNodes(a, b *models.ScenarioNode) int {
	return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
}

func newIndex(g *models.ScenarioGraph) *index {
	idx := &index{
		nodes:    make(map[string]*models.ScenarioNode, len(g.Nodes)),
		sorted:   slices.Clone(g.Nodes),
		outbound: make(map[string][]*models.ScenarioNodeConnection),
		inbound:  make(map[string][]*models.ScenarioNodeConnection),
	}

	for _, node := range g.Nodes {
		idx.nodes[node.ID] = node
	}

	slices.SortFunc(idx.sorted, compareNodes)

	for _, edge := range g.Edges {
		_, srcOK := idx.nodes[edge.SourceNodeID]
		_, dstOK := idx.nodes[edge.TargetNodeID]

		if !srcOK || !dstOK || (edge.ScenarioID != "" && g.ScenarioID != "" && edge.ScenarioID != g.ScenarioID) {
			idx.dangling = append(idx.dangling, edge)

			continue
		}

		idx.outbound[edge.SourceNodeID] = append(idx.outbound[edge.SourceNodeID], edge)
		idx.inbound[edge.TargetNodeID] = append(idx.inbound[edge.TargetNodeID], edge)
	}

	compareEdges := func(a, b *models.ScenarioNodeConnection) int {
		return cmp.Or(
			cmp.Compare(a.Order, b.Order),
			compareNodes(idx.nodes[a.TargetNodeID], idx.nodes[b.TargetNodeID]),
			compareNodes(idx.nodes[a.SourceNodeID], idx.nodes[b.SourceNodeID]),
			cmp.Compare(a.ID, b.ID),
		)
	}

	for _, edges := range idx.outbound {
		slices.SortFunc(edges, compareEdges)
	}

	for _, edges := range idx.inbound {
		slices.SortFunc(edges, compareEdges)
	}

	return idx
}

func (idx *index) roots() []*models.ScenarioNode {
	var roots []*models.ScenarioNode

	for _, node := range idx.sorted {
		if len(idx.inbound[node.ID]) == 0 {
			roots = append(roots, node)
		}
	}

	return roots
}

const (
	white = iota
	grey
	black
)

// findCycle runs a coloured DFS and reports the first back edge found.
func (idx *index) findCycle() *CyclicGraphError {
	colour := make(map[string]int, len(idx.nodes))

	var visit func(id string) *CyclicGraphError

	visit = func(id string) *CyclicGraphError {
		colour[id] = grey

		for _, edge := range idx.outbound[id] {
			switch colour[edge.TargetNodeID] {
			case grey:
				return &CyclicGraphError{From: id, To: edge.TargetNodeID}
			case white:
				if cycle := visit(edge.TargetNodeID); cycle != nil {
					return cycle
				}
			}
		}

		colour[id] = black

		return nil
	}

	for _, node := range idx.sorted {
		if colour[node.ID] == white {
			if cycle := visit(node.ID); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}
