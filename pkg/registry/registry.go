// Package registry provides the catalog of integration node definitions and
// the handlers the run executor dispatches to.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
)

// Registry holds node definitions keyed by identifier and their handlers.
// It is passed explicitly to the components that need it.
type Registry struct {
	logger          *slog.Logger
	mu              sync.RWMutex
	definitions     map[string]models.IntegrationNodeDefinition
	handlers        map[string]protocol.Handler
	allowDeprecated bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithDeprecatedExecution controls whether deprecated definitions can still be
// dispatched. It is enabled by default so existing scenarios keep running.
func WithDeprecatedExecution(allow bool) Option {
	return func(r *Registry) {
		r.allowDeprecated = allow
	}
}

func NewRegistry(log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		logger:          log,
		definitions:     make(map[string]models.IntegrationNodeDefinition),
		handlers:        make(map[string]protocol.Handler),
		allowDeprecated: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a definition. Re-registering the same identifier is only
// allowed for metadata edits within the same version.
func (r *Registry) Register(definition models.IntegrationNodeDefinition) error {
	if definition.Identifier == "" {
		return ErrInvalidDefinition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.definitions[definition.Identifier]; ok && existing.Version != definition.Version {
		return fmt.Errorf("%w: %s (%s != %s)", ErrDefinitionConflict, definition.Identifier, existing.Version, definition.Version)
	}

	r.definitions[definition.Identifier] = definition

	return nil
}

// RegisterHandler binds a handler to an identifier.
func (r *Registry) RegisterHandler(identifier string, handler protocol.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[identifier] = handler
}

// RegisterFactory registers a factory's definition and the handler it creates.
func (r *Registry) RegisterFactory(factory protocol.HandlerFactory) error {
	definition := factory.Definition()

	handler, err := factory.Create(r.logger.With("node_type", definition.Identifier))
	if err != nil {
		return fmt.Errorf("failed to create handler for %s: %w", definition.Identifier, err)
	}

	if err := r.Register(definition); err != nil {
		return err
	}

	r.RegisterHandler(definition.Identifier, handler)

	return nil
}

// GetByIdentifier returns the definition registered for an identifier.
func (r *Registry) GetByIdentifier(identifier string) (models.IntegrationNodeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definition, ok := r.definitions[identifier]

	return definition, ok
}

// ListActive returns all non-deprecated definitions ordered by identifier.
func (r *Registry) ListActive() []models.IntegrationNodeDefinition {
	return r.list(func(d models.IntegrationNodeDefinition) bool {
		return !d.Deprecated
	})
}

// ListByCategory returns non-deprecated definitions of a category.
func (r *Registry) ListByCategory(category models.CategoryType) []models.IntegrationNodeDefinition {
	return r.list(func(d models.IntegrationNodeDefinition) bool {
		return !d.Deprecated && d.Category == category
	})
}

// ListByType returns non-deprecated definitions of an integration type.
func (r *Registry) ListByType(integrationType string) []models.IntegrationNodeDefinition {
	return r.list(func(d models.IntegrationNodeDefinition) bool {
		return !d.Deprecated && d.IntegrationType == integrationType
	})
}

// Resolve returns the definition and handler the executor dispatches to.
func (r *Registry) Resolve(identifier string) (models.IntegrationNodeDefinition, protocol.Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definition, ok := r.definitions[identifier]
	if !ok {
		return models.IntegrationNodeDefinition{}, nil, &UnknownNodeTypeError{Identifier: identifier, Reason: "not registered"}
	}

	if definition.Deprecated && !r.allowDeprecated {
		return models.IntegrationNodeDefinition{}, nil, &UnknownNodeTypeError{Identifier: identifier, Reason: "deprecated"}
	}

	handler, ok := r.handlers[identifier]
	if !ok {
		return models.IntegrationNodeDefinition{}, nil, &UnknownNodeTypeError{Identifier: identifier, Reason: "no handler"}
	}

	return definition, handler, nil
}

// HealthCheck reports whether any node type is available.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.handlers) == 0 {
		return "no node handlers registered", false
	}

	return fmt.Sprintf("%d node handlers registered", len(r.handlers)), true
}

func (r *Registry) list(keep func(models.IntegrationNodeDefinition) bool) []models.IntegrationNodeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]models.IntegrationNodeDefinition, 0, len(r.definitions))
	for _, definition := range r.definitions {
		if keep(definition) {
			definitions = append(definitions, definition)
		}
	}

	slices.SortFunc(definitions, func(a, b models.IntegrationNodeDefinition) int {
		return strings.Compare(a.Identifier, b.Identifier)
	})

	return definitions
}

// LoadHandlerPlugins opens every shared object under {pluginsPath}/handlers
// and returns the HandlerFactory each one exports.
func (r *Registry) LoadHandlerPlugins(ctx context.Context, pluginsPath string) ([]protocol.HandlerFactory, error) {
	return loadPlugin[protocol.HandlerFactory](ctx, r.logger, pluginsPath, "Handler")
}

func loadPlugin[T any](ctx context.Context, logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "*/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.InfoContext(ctx, "Loading plugins", "count", len(pluginPathList))

	pluginList := make([]T, 0, len(pluginPathList))
	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s does not export %s: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s exports %s with unexpected type %T", p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.InfoContext(ctx, "Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
