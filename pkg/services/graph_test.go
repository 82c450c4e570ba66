package services

import (
	"testing"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/nodes/transform"
	"github.com/dukex/scenarios/pkg/nodes/trigger"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_CreateNode(t *testing.T) {
	s := newTestServices(t)
	scenario := s.createScenario(t)

	node := s.createNode(t, scenario.ID, trigger.ManualIdentifier, 0, nil)
	assert.NotEmpty(t, node.ID)
	assert.NotNil(t, node.Config)

	nodes, err := s.graph.ListNodes(t.Context(), scenario.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	_, err = s.graph.CreateNode(t.Context(), scenario.ID, &CreateNodeRequest{IntegrationNodeID: "nope", Label: "x"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = s.graph.CreateNode(t.Context(), "missing", &CreateNodeRequest{IntegrationNodeID: trigger.ManualIdentifier, Label: "x"})
	assert.True(t, persistence.IsScenarioNotFound(err))
}

func TestGraph_UpdateNode_LockedProperty(t *testing.T) {
	s := newTestServices(t)
	scenario := s.createScenario(t)

	node, err := s.graph.CreateNode(t.Context(), scenario.ID, &CreateNodeRequest{
		IntegrationNodeID: transform.Identifier,
		Label:             "Shape",
		Config:            map[string]any{"expression": "{}"},
		LockedProperties:  []string{PropertyConfig},
	})
	require.NoError(t, err)

	_, err = s.graph.UpdateNode(t.Context(), scenario.ID, node.ID, &UpdateNodeRequest{Config: map[string]any{}})
	require.ErrorIs(t, err, ErrLockedProperty)
	assert.True(t, IsConflictError(err))

	label := "Reshape"
	order := 4
	updated, err := s.graph.UpdateNode(t.Context(), scenario.ID, node.ID, &UpdateNodeRequest{Label: &label, Order: &order})
	require.NoError(t, err)
	assert.Equal(t, "Reshape", updated.Label)
	assert.Equal(t, 4, updated.Order)
	assert.Equal(t, map[string]any{"expression": "{}"}, updated.Config)
}

func TestGraph_DeleteNode(t *testing.T) {
	s := newTestServices(t)
	scenario := s.createScenario(t)

	system, err := s.graph.CreateNode(t.Context(), scenario.ID, &CreateNodeRequest{
		IntegrationNodeID: trigger.ManualIdentifier,
		Label:             "Start",
		IsSystem:          true,
	})
	require.NoError(t, err)

	other := s.createNode(t, scenario.ID, transform.Identifier, 1, nil)
	s.connect(t, scenario.ID, system.ID, other.ID)

	err = s.graph.DeleteNode(t.Context(), scenario.ID, system.ID)
	require.ErrorIs(t, err, ErrSystemNode)

	require.NoError(t, s.graph.DeleteNode(t.Context(), scenario.ID, other.ID))

	edges, err := s.graph.ListEdges(t.Context(), scenario.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestGraph_CreateEdge(t *testing.T) {
	s := newTestServices(t)
	scenario := s.createScenario(t)
	otherScenario := s.createScenario(t)

	a := s.createNode(t, scenario.ID, trigger.ManualIdentifier, 0, nil)
	b := s.createNode(t, scenario.ID, transform.Identifier, 1, nil)
	foreign := s.createNode(t, otherScenario.ID, transform.Identifier, 0, nil)

	t.Run("validated", func(t *testing.T) {
		edge, result, err := s.graph.CreateEdge(t.Context(), scenario.ID, &CreateEdgeRequest{
			SourceNodeID: a.ID,
			TargetNodeID: b.ID,
			Mapping:      []models.FieldMapping{{SourceField: "amount", TargetField: "total", TransformationFunctionID: "toCents"}},
			Validate:     true,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, edge.ID)
		require.NotNil(t, result)
		assert.True(t, result.Valid)
	})

	t.Run("cycle reported", func(t *testing.T) {
		_, result, err := s.graph.CreateEdge(t.Context(), scenario.ID, &CreateEdgeRequest{
			SourceNodeID: b.ID,
			TargetNodeID: a.ID,
			Validate:     true,
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Valid)
	})

	t.Run("outside scenario", func(t *testing.T) {
		_, _, err := s.graph.CreateEdge(t.Context(), scenario.ID, &CreateEdgeRequest{
			SourceNodeID: a.ID,
			TargetNodeID: foreign.ID,
		})
		require.ErrorIs(t, err, ErrEdgeOutsideScenario)
	})

	t.Run("unknown transformation", func(t *testing.T) {
		_, _, err := s.graph.CreateEdge(t.Context(), scenario.ID, &CreateEdgeRequest{
			SourceNodeID: a.ID,
			TargetNodeID: b.ID,
			Mapping:      []models.FieldMapping{{SourceField: "a", TargetField: "b", TransformationFunctionID: "nope"}},
		})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}
