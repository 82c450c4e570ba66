package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/scenarios/pkg/runstate"
	"github.com/dukex/scenarios/pkg/vault"
)

// NewResolver builds the credential resolver from a base64 key. A missing or
// malformed key is a vault.ConfigurationError.
func NewResolver(encodedKey string, logger *slog.Logger) (*vault.Resolver, error) {
	v, err := vault.NewFromBase64(encodedKey)
	if err != nil {
		return nil, err
	}

	return vault.NewResolver(v, logger), nil
}

// NewCancellationStore shares cancellation flags through Redis when redisURL
// is set and keeps them in memory otherwise.
//
// nolint:ireturn
func NewCancellationStore(ctx context.Context, redisURL string) (runstate.CancellationStore, error) {
	if redisURL == "" {
		return runstate.NewMemoryStore(), nil
	}

	store, err := runstate.NewRedisStoreFromURL(ctx, redisURL)
	if err != nil {
		return nil, err
	}

	return store, nil
}
