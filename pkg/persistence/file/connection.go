package file

import (
	"context"
	"slices"
	"strings"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
)

// ConnectionRepository stores connections under {root}/connections.
type ConnectionRepository struct {
	p *Persistence
}

func (r *ConnectionRepository) SaveConnection(_ context.Context, connection *models.Connection) error {
	if err := validateID(connection.ID); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return writeJSON(r.p.path("connections", connection.ID+".json"), connection)
}

func (r *ConnectionRepository) GetConnection(_ context.Context, id string) (*models.Connection, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var connection models.Connection

	err := readJSON(r.p.path("connections", id+".json"), &connection, persistence.ErrConnectionNotFound)
	if err != nil {
		return nil, err
	}

	return &connection, nil
}

// ListConnections returns connections ordered by name; an empty ownerID lists all.
func (r *ConnectionRepository) ListConnections(_ context.Context, ownerID string) ([]*models.Connection, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	connections, err := readAll[models.Connection](r.p.path("connections"))
	if err != nil {
		return nil, err
	}

	if ownerID != "" {
		connections = slices.DeleteFunc(connections, func(c *models.Connection) bool {
			return c.OwnerID != ownerID
		})
	}

	slices.SortFunc(connections, func(a, b *models.Connection) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return connections, nil
}

func (r *ConnectionRepository) DeleteConnection(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return removeFile(r.p.path("connections", id+".json"), persistence.ErrConnectionNotFound)
}
