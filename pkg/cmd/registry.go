// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/scenarios/pkg/registry"
)

// NewRegistry registers the built-in node handlers and, when pluginsPath is
// set, every handler plugin found under it.
func NewRegistry(ctx context.Context, logger *slog.Logger, pluginsPath string, opts ...registry.Option) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger, opts...)

	if err := reg.RegisterDefaultNodes(); err != nil {
		return nil, err
	}

	if pluginsPath == "" {
		return reg, nil
	}

	plugins, err := reg.LoadHandlerPlugins(ctx, pluginsPath)
	if err != nil {
		return nil, err
	}

	for _, plugin := range plugins {
		if err := reg.RegisterFactory(plugin); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
