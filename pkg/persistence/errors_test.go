package persistence_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukex/scenarios/pkg/persistence"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		scenarioErr := persistence.NewScenarioError("GetByID", "scenario-123", persistence.ErrScenarioNotFound)
		nodeErr := &persistence.NodeError{Op: "GetNode", ScenarioID: "scenario-123", NodeID: "n1", Err: persistence.ErrNodeNotFound}
		logErr := &persistence.LogEntryError{Op: "Complete", EntryID: "e1", Err: persistence.ErrLogEntryFinalized}

		assert.True(t, persistence.IsScenarioNotFound(scenarioErr))
		assert.True(t, persistence.IsNodeNotFound(nodeErr))
		assert.True(t, persistence.IsLogEntryFinalized(logErr))
		assert.True(t, persistence.IsNotFound(nodeErr))
		assert.False(t, persistence.IsNotFound(logErr))

		assert.True(t, errors.Is(scenarioErr, persistence.ErrScenarioNotFound))
	})

	t.Run("scenario error contains context", func(t *testing.T) {
		err := persistence.NewScenarioError("Delete", "scenario-123", persistence.ErrScenarioNotFound)

		assert.Contains(t, err.Error(), "Delete")
		assert.Contains(t, err.Error(), "scenario-123")
		assert.Contains(t, err.Error(), "scenario not found")
	})
}
