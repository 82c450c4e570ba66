// Package template renders Go text templates into JSON-aware values for node
// inputs and transforms.
package template

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// EnvPrefix selects the environment variables visible to templates as .env.
// The prefix is stripped: SCENARIO_REGION is read as {{ .env.REGION }}.
const EnvPrefix = "SCENARIO_"

// Context is the data a node template is rendered against during a run.
type Context struct {
	ScenarioID string
	RunID      string
	NodeID     string
	Input      map[string]any
	Trigger    map[string]any
	Nodes      map[string]any
}

func (c *Context) data() map[string]any {
	return map[string]any{
		"input":   c.Input,
		"trigger": c.Trigger,
		"nodes":   c.Nodes,
		"env":     scenarioEnv(),
		"run": map[string]any{
			"id":          c.RunID,
			"scenario_id": c.ScenarioID,
			"node_id":     c.NodeID,
		},
	}
}

// RenderWithContext renders a template with .input, .trigger, .nodes, .env and .run available.
func RenderWithContext(input string, runCtx *Context) (any, error) {
	return Render(input, runCtx.data())
}

// NeedsTemplating reports whether a string contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"rand": func(upper int) int {
		if upper <= 0 {
			return 0
		}

		return rand.IntN(upper)
	},
	"json": func(v any) (string, error) {
		raw, err := json.Marshal(v)

		return string(raw), err
	},
	"default": func(fallback, v any) any {
		if v == nil || v == "" {
			return fallback
		}

		return v
	},
}

// Render executes templateStr against data and coerces the text it produces.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.New("node").Funcs(funcs).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	value, err := coerce(buf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse json '%s': %w", templateStr, err)
	}

	return value, nil
}

// coerce turns rendered text into a JSON object or array, a number, a bool,
// or leaves it a string. Text shaped like JSON that does not decode is an error.
func coerce(rendered string) (any, error) {
	text := strings.TrimSpace(rendered)

	if looksLikeJSON(text) {
		var value any
		if err := json.Unmarshal([]byte(text), &value); err != nil {
			return nil, err
		}

		return value, nil
	}

	if num, err := strconv.ParseFloat(text, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(text); err == nil {
		return b, nil
	}

	return text, nil
}

func looksLikeJSON(text string) bool {
	return (strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")) ||
		(strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]"))
}

func scenarioEnv() map[string]any {
	env := make(map[string]any)

	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}

		if key, found := strings.CutPrefix(name, EnvPrefix); found && key != "" {
			env[key] = value
		}
	}

	return env
}
