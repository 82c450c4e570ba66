package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyScenario indicates a scenario without nodes.
	ErrEmptyScenario = errors.New("scenario has no nodes")

	// ErrNoEntryPoint indicates no node without incoming edges exists.
	ErrNoEntryPoint = errors.New("scenario has no entry point")

	// ErrCyclicGraph is matched by every CyclicGraphError.
	ErrCyclicGraph = errors.New("scenario graph contains a cycle")

	// ErrDanglingEdge is matched by every DanglingEdgeError.
	ErrDanglingEdge = errors.New("edge references a node outside the scenario")
)

// CyclicGraphError names the edge that closes a cycle: From reaches To while To
// is still on the traversal stack.
type CyclicGraphError struct {
	From string
	To   string
}

func (e *CyclicGraphError) Error() string {
	return fmt.Sprintf("cycle detected: edge from node '%s' back to node '%s'", e.From, e.To)
}

func (e *CyclicGraphError) Is(target error) bool {
	return target == ErrCyclicGraph
}

// DanglingEdgeError names an edge whose endpoint is not a node of the scenario.
type DanglingEdgeError struct {
	EdgeID string
	NodeID string
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("edge '%s' references unknown node '%s'", e.EdgeID, e.NodeID)
}

func (e *DanglingEdgeError) Is(target error) bool {
	return target == ErrDanglingEdge
}

// IsValidationError checks if an error is one of the graph validation errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyScenario) ||
		errors.Is(err, ErrNoEntryPoint) ||
		errors.Is(err, ErrCyclicGraph) ||
		errors.Is(err, ErrDanglingEdge)
}
