package mapping

import (
	"maps"
	"strings"

	"github.com/dukex/scenarios/pkg/models"
)

// Mapper applies edge mappings using a transformation catalog.
type Mapper struct {
	catalog *Catalog
}

func NewMapper(catalog *Catalog) *Mapper {
	return &Mapper{catalog: catalog}
}

// Apply builds a target input from a source output. An empty mapping passes the
// whole source output through. A missing source field leaves the target field
// absent; an unknown transformation id fails the whole mapping.
func (m *Mapper) Apply(mapping []models.FieldMapping, sourceOutput map[string]any) (map[string]any, error) {
	target := make(map[string]any)

	if len(mapping) == 0 {
		maps.Copy(target, sourceOutput)

		return target, nil
	}

	for _, fm := range mapping {
		var fn TransformFunc

		if fm.TransformationFunctionID != "" {
			var err error

			fn, err = m.catalog.Get(fm.TransformationFunctionID)
			if err != nil {
				return nil, err
			}
		}

		value, ok := Lookup(sourceOutput, fm.SourceField)
		if !ok {
			continue
		}

		if fn != nil {
			transformed, err := fn(value, fm.Parameters)
			if err != nil {
				return nil, &TransformationError{
					FunctionID:  fm.TransformationFunctionID,
					TargetField: fm.TargetField,
					Err:         err,
				}
			}

			value = transformed
		}

		Assign(target, fm.TargetField, value)
	}

	return target, nil
}

// Lookup reads a field by exact key first, then as a dotted path through nested objects.
func Lookup(data map[string]any, field string) (any, bool) {
	if data == nil {
		return nil, false
	}

	if v, ok := data[field]; ok {
		return v, true
	}

	if !strings.Contains(field, ".") {
		return nil, false
	}

	var current any = data

	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Assign writes a value at a dotted path, creating intermediate objects.
func Assign(data map[string]any, field string, value any) {
	parts := strings.Split(field, ".")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}

		current = next
	}

	current[parts[len(parts)-1]] = value
}
