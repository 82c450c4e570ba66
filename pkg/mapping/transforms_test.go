package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTransforms(t *testing.T) {
	catalog := NewDefaultCatalog()

	tests := []struct {
		name     string
		fn       string
		value    any
		params   map[string]any
		expected any
	}{
		{name: "toCents float", fn: "toCents", value: 12.5, expected: int64(1250)},
		{name: "toCents rounding", fn: "toCents", value: 19.999, expected: int64(2000)},
		{name: "toCents string", fn: "toCents", value: "3.10", expected: int64(310)},
		{name: "fromCents", fn: "fromCents", value: int64(1250), expected: 12.5},
		{name: "toString float", fn: "toString", value: 12.5, expected: "12.5"},
		{name: "toString object", fn: "toString", value: map[string]any{"a": 1.0}, expected: `{"a":1}`},
		{name: "toNumber", fn: "toNumber", value: "42", expected: 42.0},
		{name: "toBoolean string", fn: "toBoolean", value: "true", expected: true},
		{name: "toBoolean number", fn: "toBoolean", value: 0.0, expected: false},
		{name: "uppercase", fn: "uppercase", value: "abc", expected: "ABC"},
		{name: "lowercase", fn: "lowercase", value: "ABC", expected: "abc"},
		{name: "trim", fn: "trim", value: "  x ", expected: "x"},
		{name: "default on empty", fn: "default", value: "", params: map[string]any{"value": "n/a"}, expected: "n/a"},
		{name: "default keeps value", fn: "default", value: "set", params: map[string]any{"value": "n/a"}, expected: "set"},
		{name: "round", fn: "round", value: 3.14159, params: map[string]any{"precision": 2.0}, expected: 3.14},
		{name: "template", fn: "template", value: "Ada", params: map[string]any{"template": "Hello {{.value}}"}, expected: "Hello Ada"},
		{name: "jq single", fn: "jq", value: map[string]any{"items": []any{1, 2, 3}}, params: map[string]any{"query": ".items | length"}, expected: 3},
		{name: "jq many", fn: "jq", value: []any{map[string]any{"id": "a"}, map[string]any{"id": "b"}}, params: map[string]any{"query": ".[].id"}, expected: []any{"a", "b"}},
		{name: "jq none", fn: "jq", value: []any{}, params: map[string]any{"query": ".[]"}, expected: nil},
		{name: "expr", fn: "expr", value: 10.0, params: map[string]any{"expression": "value * 2 + params.offset", "offset": 1.0}, expected: 21.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := catalog.Get(tt.fn)
			require.NoError(t, err)

			result, err := fn(tt.value, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestBuiltinTransforms_Errors(t *testing.T) {
	catalog := NewDefaultCatalog()

	tests := []struct {
		name   string
		fn     string
		value  any
		params map[string]any
	}{
		{name: "toCents non number", fn: "toCents", value: []any{}},
		{name: "uppercase non string", fn: "uppercase", value: 1},
		{name: "jq missing query", fn: "jq", value: 1, params: map[string]any{}},
		{name: "jq invalid query", fn: "jq", value: 1, params: map[string]any{"query": ".["}},
		{name: "expr invalid", fn: "expr", value: 1, params: map[string]any{"expression": "value +"}},
		{name: "template missing", fn: "template", value: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := catalog.Get(tt.fn)
			require.NoError(t, err)

			_, err = fn(tt.value, tt.params)
			assert.Error(t, err)
		})
	}
}
