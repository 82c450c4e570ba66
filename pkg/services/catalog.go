package services

import (
	"fmt"

	"github.com/dukex/scenarios/pkg/mapping"
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/registry"
)

// Catalog exposes the node registry and the transformation catalog read-only.
type Catalog struct {
	registry   *registry.Registry
	transforms *mapping.Catalog
}

// NewCatalog creates a new catalog service.
func NewCatalog(registry *registry.Registry, transforms *mapping.Catalog) *Catalog {
	return &Catalog{
		registry:   registry,
		transforms: transforms,
	}
}

// NodeTypeFilter narrows ListNodeTypes. At most one field is expected.
type NodeTypeFilter struct {
	Category        models.CategoryType
	IntegrationType string
}

// ListNodeTypes returns the non-deprecated node definitions matching the filter.
func (c *Catalog) ListNodeTypes(filter NodeTypeFilter) []models.IntegrationNodeDefinition {
	switch {
	case filter.Category != "":
		return c.registry.ListByCategory(filter.Category)
	case filter.IntegrationType != "":
		return c.registry.ListByType(filter.IntegrationType)
	default:
		return c.registry.ListActive()
	}
}

// GetNodeType returns a single definition, deprecated ones included.
func (c *Catalog) GetNodeType(identifier string) (models.IntegrationNodeDefinition, error) {
	definition, ok := c.registry.GetByIdentifier(identifier)
	if !ok {
		return models.IntegrationNodeDefinition{}, fmt.Errorf("%w: %s", ErrNodeTypeNotFound, identifier)
	}

	return definition, nil
}

// ValidateNodeConfig checks a config against the node type's schema and
// returns the violations. It is only run when a caller asks for it.
func (c *Catalog) ValidateNodeConfig(identifier string, config map[string]any) ([]string, error) {
	violations, err := c.registry.ValidateConfig(identifier, config)
	if registry.IsUnknownNodeType(err) {
		return nil, fmt.Errorf("%w: %s", ErrNodeTypeNotFound, identifier)
	}

	return violations, err
}

// Transformations lists the ids usable in edge mappings.
func (c *Catalog) Transformations() []string {
	return c.transforms.IDs()
}
