package switchnode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/scenarios/pkg/protocol"
)

func switchConfig() map[string]any {
	return map[string]any{
		"value": "{{.input.plan}}",
		"cases": []any{
			map[string]any{"value": "pro", "branch": "paid"},
			map[string]any{"value": "enterprise", "branch": "paid"},
			map[string]any{"value": "free"},
		},
	}
}

func TestHandler_Execute_MatchingCase(t *testing.T) {
	tests := []struct {
		plan   string
		branch string
	}{
		{plan: "pro", branch: "paid"},
		{plan: "enterprise", branch: "paid"},
		{plan: "free", branch: "free"},
		{plan: "trial", branch: BranchOtherwise},
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			result, err := (&Handler{}).Execute(context.Background(), &protocol.HandlerRequest{
				Config: switchConfig(),
				Input:  map[string]any{"plan": tt.plan},
			})
			require.NoError(t, err)
			require.Equal(t, protocol.HandlerStatusSuccess, result.Status, result.ErrorMessage)
			assert.Equal(t, tt.branch, result.Branch)
			assert.Equal(t, tt.plan, result.Output["matched_value"])
		})
	}
}

func TestHandler_Execute_InvalidConfig(t *testing.T) {
	result, err := (&Handler{}).Execute(context.Background(), &protocol.HandlerRequest{Config: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, protocol.HandlerStatusError, result.Status)

	result, err = (&Handler{}).Execute(context.Background(), &protocol.HandlerRequest{
		Config: map[string]any{"value": "x", "cases": []any{"not-an-object"}},
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.HandlerStatusError, result.Status)
	assert.Equal(t, "case 0 must be an object", result.ErrorMessage)
}
