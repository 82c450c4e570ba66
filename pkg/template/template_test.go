package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Coercion(t *testing.T) {
	data := map[string]any{
		"customer": "Ana",
		"items":    3,
		"vip":      true,
		"orders": []any{
			map[string]any{"id": "A-1", "total": 40.5},
			map[string]any{"id": "A-2", "total": 9.5},
		},
	}

	tests := []struct {
		name     string
		template string
		expected any
	}{
		{name: "string", template: "{{ .customer }}", expected: "Ana"},
		{name: "number becomes float", template: "{{ .items }}", expected: 3.0},
		{name: "bool", template: "{{ .vip }}", expected: true},
		{name: "surrounding space trimmed", template: "  {{ .customer }}\n", expected: "Ana"},
		{name: "interpolation", template: "orders/{{ .customer }}/{{ .items }}", expected: "orders/Ana/3"},
		{name: "conditional", template: "{{ if .vip }}priority{{ else }}standard{{ end }}", expected: "priority"},
		{
			name:     "object",
			template: `{"customer": "{{ .customer }}", "count": {{ len .orders }}}`,
			expected: map[string]any{"customer": "Ana", "count": 2.0},
		},
		{name: "array", template: `[{{ range $i, $o := .orders }}{{ if $i }},{{ end }}"{{ $o.id }}"{{ end }}]`, expected: []any{"A-1", "A-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRender_Funcs(t *testing.T) {
	data := map[string]any{
		"order": map[string]any{"id": "A-1", "tags": []any{"new"}},
		"note":  "",
	}

	result, err := Render(`{"payload": {{ json .order }}}`, data)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"payload": map[string]any{"id": "A-1", "tags": []any{"new"}}}, result)

	result, err = Render(`{{ default "none" .note }}`, data)
	require.NoError(t, err)
	assert.Equal(t, "none", result)

	result, err = Render(`{{ default "none" .order.id }}`, data)
	require.NoError(t, err)
	assert.Equal(t, "A-1", result)

	result, err = Render("{{ rand 5 }}", data)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result, 0.0)
	assert.Less(t, result, 5.0)

	result, err = Render("{{ rand 0 }}", data)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result)
}

func TestRender_Errors(t *testing.T) {
	_, err := Render("{ broken..json }}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse json")

	_, err = Render("{{ missing.field }}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `function "missing" not defined`)

	_, err = Render("{{ .a.b }}", map[string]any{"a": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute template")
}

func TestRenderWithContext(t *testing.T) {
	t.Setenv("SCENARIO_REGION", "eu-west")
	t.Setenv("DATABASE_PASSWORD", "hunter2")

	runCtx := &Context{
		ScenarioID: "scenario-1",
		RunID:      "run-1",
		NodeID:     "node-x",
		Input:      map[string]any{"amount": 12.5},
		Trigger:    map[string]any{"order_id": "A-100"},
		Nodes: map[string]any{
			"fetch": map[string]any{"email": "a@example.com"},
		},
	}

	result, err := RenderWithContext(`{"order": "{{ .trigger.order_id }}", "email": "{{ .nodes.fetch.email }}", "amount": {{ .input.amount }}}`, runCtx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"order": "A-100", "email": "a@example.com", "amount": 12.5}, result)

	result, err = RenderWithContext("{{ .run.id }}/{{ .run.scenario_id }}/{{ .run.node_id }}", runCtx)
	require.NoError(t, err)
	assert.Equal(t, "run-1/scenario-1/node-x", result)

	result, err = RenderWithContext("{{ .env.REGION }}", runCtx)
	require.NoError(t, err)
	assert.Equal(t, "eu-west", result)

	result, err = RenderWithContext(`{{ default "hidden" .env.DATABASE_PASSWORD }}`, runCtx)
	require.NoError(t, err)
	assert.Equal(t, "hidden", result)
}

func TestNeedsTemplating(t *testing.T) {
	assert.True(t, NeedsTemplating("{{ .input.name }}"))
	assert.False(t, NeedsTemplating("plain text"))
}
