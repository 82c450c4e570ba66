// Package mapping projects a producing node's output into a consuming node's
// input through edge field mappings and a catalog of transformation functions.
package mapping

import (
	"slices"
	"sync"
)

// TransformFunc converts a mapped value using the mapping's parameters.
type TransformFunc func(value any, params map[string]any) (any, error)

// Catalog resolves transformation functions by id.
type Catalog struct {
	mu        sync.RWMutex
	functions map[string]TransformFunc
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{functions: make(map[string]TransformFunc)}
}

// NewDefaultCatalog returns a catalog with the built-in transformations registered.
func NewDefaultCatalog() *Catalog {
	c := NewCatalog()
	registerBuiltins(c)

	return c
}

// Register adds or replaces a transformation function.
func (c *Catalog) Register(id string, fn TransformFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.functions[id] = fn
}

// Get returns the transformation registered under id.
func (c *Catalog) Get(id string) (TransformFunc, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fn, ok := c.functions[id]
	if !ok {
		return nil, &UnknownTransformationError{FunctionID: id}
	}

	return fn, nil
}

// IDs lists the registered transformation ids in ascending order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.functions))
	for id := range c.functions {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}
