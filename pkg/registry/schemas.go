package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateConfig checks a node config against its definition's config schema.
// Schemas are advisory: the executor never calls this; it is offered to
// callers that want stricter guarantees when editing a scenario.
// It returns the list of violations, empty when the config conforms or when
// the definition declares no schema.
func (r *Registry) ValidateConfig(identifier string, config map[string]any) ([]string, error) {
	definition, ok := r.GetByIdentifier(identifier)
	if !ok {
		return nil, &UnknownNodeTypeError{Identifier: identifier, Reason: "not registered"}
	}

	if definition.ConfigSchema == "" {
		return nil, nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewStringLoader(definition.ConfigSchema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate config for %s: %w", identifier, err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return violations, nil
}
