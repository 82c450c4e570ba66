package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/itchyny/gojq"

	"github.com/dukex/scenarios/pkg/template"
)

var errNotANumber = errors.New("value is not a number")

func registerBuiltins(c *Catalog) {
	c.Register("toCents", toCents)
	c.Register("fromCents", fromCents)
	c.Register("toString", toString)
	c.Register("toNumber", func(value any, _ map[string]any) (any, error) { return asFloat(value) })
	c.Register("toBoolean", toBoolean)
	c.Register("uppercase", stringFunc(strings.ToUpper))
	c.Register("lowercase", stringFunc(strings.ToLower))
	c.Register("trim", stringFunc(strings.TrimSpace))
	c.Register("default", defaultValue)
	c.Register("round", round)
	c.Register("template", renderTemplate)
	c.Register("jq", jq)
	c.Register("expr", evalExpr)
}

func asFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errNotANumber, v)
		}

		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", errNotANumber, value)
	}
}

// toCents converts a decimal amount to integer minor units, rounding half away from zero.
func toCents(value any, _ map[string]any) (any, error) {
	f, err := asFloat(value)
	if err != nil {
		return nil, err
	}

	return int64(math.Round(f * 100)), nil
}

func fromCents(value any, _ map[string]any) (any, error) {
	f, err := asFloat(value)
	if err != nil {
		return nil, err
	}

	return f / 100, nil
}

func toString(value any, _ map[string]any) (any, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		return string(encoded), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func toBoolean(value any, _ map[string]any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case nil:
		return false, nil
	default:
		f, err := asFloat(v)
		if err != nil {
			return nil, err
		}

		return f != 0, nil
	}
}

func stringFunc(fn func(string) string) TransformFunc {
	return func(value any, _ map[string]any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}

		return fn(s), nil
	}
}

// defaultValue replaces nil or empty string values with params["value"].
func defaultValue(value any, params map[string]any) (any, error) {
	if value == nil || value == "" {
		return params["value"], nil
	}

	return value, nil
}

func round(value any, params map[string]any) (any, error) {
	f, err := asFloat(value)
	if err != nil {
		return nil, err
	}

	precision := 0.0
	if p, ok := params["precision"]; ok {
		precision, err = asFloat(p)
		if err != nil {
			return nil, fmt.Errorf("invalid precision: %w", err)
		}
	}

	factor := math.Pow(10, precision)

	return math.Round(f*factor) / factor, nil
}

func stringParam(params map[string]any, name string) (string, error) {
	s, ok := params[name].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("missing required parameter '%s'", name)
	}

	return s, nil
}

// renderTemplate renders params["template"] with .value and .params.
func renderTemplate(value any, params map[string]any) (any, error) {
	tmpl, err := stringParam(params, "template")
	if err != nil {
		return nil, err
	}

	return template.Render(tmpl, map[string]any{"value": value, "params": params})
}

// jq runs params["query"] against the value. One result is returned as is,
// several as a list, none as nil.
func jq(value any, params map[string]any) (any, error) {
	query, err := stringParam(params, "query")
	if err != nil {
		return nil, err
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid jq query %q: %w", query, err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq query %q: %w", query, err)
	}

	normalized, err := normalizeForJQ(value)
	if err != nil {
		return nil, err
	}

	var results []any

	iter := code.Run(normalized)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq query error: %w", err)
		}

		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// normalizeForJQ converts the value into the JSON types gojq operates on.
func normalizeForJQ(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize value for jq: %w", err)
	}

	var normalized any
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return nil, fmt.Errorf("failed to normalize value for jq: %w", err)
	}

	return normalized, nil
}

// evalExpr evaluates params["expression"] with value and params in scope.
func evalExpr(value any, params map[string]any) (any, error) {
	expression, err := stringParam(params, "expression")
	if err != nil {
		return nil, err
	}

	env := map[string]any{"value": value, "params": params}

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	return expr.Run(program, env)
}
