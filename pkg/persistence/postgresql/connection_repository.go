package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
)

// ConnectionRepository handles credential set database operations.
type ConnectionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db *sql.DB, logger *slog.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, logger: logger}
}

const connectionColumns = `
			id
		  , app_id
		  , name
		  , owner_id
		  , status
		  , ciphertext
		  , masked_credentials
		  , credentials
		  , expires_at
		  , created_at
		  , updated_at`

// SaveConnection inserts or updates a connection. Ciphertext and mask are
// replaced in the same statement.
func (cr *ConnectionRepository) SaveConnection(ctx context.Context, connection *models.Connection) error {
	maskedJSON, err := marshalJSON("masked credentials", connection.MaskedCredentials)
	if err != nil {
		return err
	}

	credentialsJSON, err := marshalJSON("credentials", connection.Credentials)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO connections (` + connectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			app_id = EXCLUDED.app_id,
			name = EXCLUDED.name,
			owner_id = EXCLUDED.owner_id,
			status = EXCLUDED.status,
			ciphertext = EXCLUDED.ciphertext,
			masked_credentials = EXCLUDED.masked_credentials,
			credentials = EXCLUDED.credentials,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = cr.db.ExecContext(ctx, query,
		connection.ID,
		connection.AppID,
		connection.Name,
		connection.OwnerID,
		connection.Status,
		connection.Ciphertext,
		maskedJSON,
		credentialsJSON,
		connection.ExpiresAt,
		connection.CreatedAt,
		connection.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save connection %s: %w", connection.ID, err)
	}

	return nil
}

func (cr *ConnectionRepository) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`

	connection, err := scanConnection(cr.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("connection %s: %w", id, persistence.ErrConnectionNotFound)
		}

		return nil, fmt.Errorf("failed to scan connection: %w", err)
	}

	return connection, nil
}

// ListConnections returns connections ordered by name; an empty ownerID lists all.
func (cr *ConnectionRepository) ListConnections(ctx context.Context, ownerID string) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM connections
		WHERE ($1 = '' OR owner_id = $1)
		ORDER BY name, id
	`

	rows, err := cr.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	defer closeRows(ctx, cr.logger, rows)

	connections := make([]*models.Connection, 0)

	for rows.Next() {
		connection, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}

		connections = append(connections, connection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return connections, nil
}

func (cr *ConnectionRepository) DeleteConnection(ctx context.Context, id string) error {
	result, err := cr.db.ExecContext(ctx, "DELETE FROM connections WHERE id = $1", id)

	return checkAffected(result, err, fmt.Errorf("connection %s: %w", id, persistence.ErrConnectionNotFound))
}

func scanConnection(row scanner) (*models.Connection, error) {
	var (
		connection      models.Connection
		maskedJSON      []byte
		credentialsJSON []byte
	)

	err := row.Scan(
		&connection.ID,
		&connection.AppID,
		&connection.Name,
		&connection.OwnerID,
		&connection.Status,
		&connection.Ciphertext,
		&maskedJSON,
		&credentialsJSON,
		&connection.ExpiresAt,
		&connection.CreatedAt,
		&connection.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = unmarshalJSON("masked credentials", maskedJSON, &connection.MaskedCredentials)
	if err != nil {
		return nil, err
	}

	err = unmarshalJSON("credentials", credentialsJSON, &connection.Credentials)
	if err != nil {
		return nil, err
	}

	return &connection, nil
}
