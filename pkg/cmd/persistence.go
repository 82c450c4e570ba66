package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/persistence/file"
	"github.com/dukex/scenarios/pkg/persistence/postgresql"
)

// NewPersistence picks the storage backend from the database URL scheme.
// file://path uses the JSON file store; postgres:// and postgresql:// use PostgreSQL.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch scheme := parsePersistenceScheme(databaseURL); scheme {
	case "file":
		return file.NewPersistence(databaseURL), nil
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported persistence scheme %q (supported: file, postgres)", scheme)
	}
}

func parsePersistenceScheme(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
