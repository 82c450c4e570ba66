package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/vault"
	"github.com/google/uuid"
)

// CreateConnectionRequest carries a new credential set. Credentials are
// plaintext only until sealed by the vault.
type CreateConnectionRequest struct {
	AppID       string
	Name        string
	OwnerID     string
	Credentials map[string]string
	ExpiresAt   *time.Time
}

// Connection manages credential sets. Everything it returns is redacted:
// callers only ever see masked credentials.
type Connection struct {
	persistence persistence.Persistence
	resolver    *vault.Resolver
	logger      *slog.Logger
}

// NewConnection creates a new connection service. A nil resolver leaves reads
// working while writes fail with ErrVaultUnavailable.
func NewConnection(persistence persistence.Persistence, resolver *vault.Resolver, logger *slog.Logger) *Connection {
	return &Connection{
		persistence: persistence,
		resolver:    resolver,
		logger:      logger.With("module", "connection_service"),
	}
}

// Create seals the credentials and stores the connection.
func (c *Connection) Create(ctx context.Context, req *CreateConnectionRequest) (*models.Connection, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, ErrEmptyOwnerID
	}

	if req.AppID == "" || req.Name == "" {
		return nil, NewValidationError("CreateConnection", "INVALID_CONNECTION", "app_id and name are required", ErrInvalidRequest)
	}

	ciphertext, masked, err := c.seal(req.Credentials)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	connection := &models.Connection{
		ID:                uuid.New().String(),
		AppID:             req.AppID,
		Name:              req.Name,
		OwnerID:           strings.TrimSpace(req.OwnerID),
		Status:            models.ConnectionStatusConnected,
		Ciphertext:        ciphertext,
		MaskedCredentials: masked,
		ExpiresAt:         req.ExpiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = c.persistence.ConnectionRepository().SaveConnection(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	c.logger.InfoContext(ctx, "Connection created", "connection_id", connection.ID, "app_id", connection.AppID)

	return connection.Redacted(), nil
}

// Get returns a connection with masked credentials only.
func (c *Connection) Get(ctx context.Context, id string) (*models.Connection, error) {
	connection, err := c.persistence.ConnectionRepository().GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}

	return connection.Redacted(), nil
}

// List returns the connections of an owner with masked credentials only.
func (c *Connection) List(ctx context.Context, ownerID string) ([]*models.Connection, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrEmptyOwnerID
	}

	connections, err := c.persistence.ConnectionRepository().ListConnections(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	redacted := make([]*models.Connection, len(connections))
	for i, connection := range connections {
		redacted[i] = connection.Redacted()
	}

	return redacted, nil
}

// Rotate replaces the ciphertext and mask in one write. Legacy plaintext
// credentials are dropped and the connection is marked connected again.
func (c *Connection) Rotate(ctx context.Context, id string, credentials map[string]string, expiresAt *time.Time) (*models.Connection, error) {
	connection, err := c.persistence.ConnectionRepository().GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}

	ciphertext, masked, err := c.seal(credentials)
	if err != nil {
		return nil, err
	}

	connection.Ciphertext = ciphertext
	connection.MaskedCredentials = masked
	connection.Credentials = nil
	connection.Status = models.ConnectionStatusConnected
	connection.ExpiresAt = expiresAt
	connection.UpdatedAt = time.Now().UTC()

	err = c.persistence.ConnectionRepository().SaveConnection(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate connection: %w", err)
	}

	c.logger.InfoContext(ctx, "Connection credentials rotated", "connection_id", connection.ID)

	return connection.Redacted(), nil
}

// SetStatus records the health of a connection.
func (c *Connection) SetStatus(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error) {
	switch status {
	case models.ConnectionStatusConnected, models.ConnectionStatusError, models.ConnectionStatusDisconnected:
	default:
		return nil, NewValidationError("SetStatus", "INVALID_STATUS", fmt.Sprintf("invalid connection status '%s'", status), ErrInvalidConnectionStatus)
	}

	connection, err := c.persistence.ConnectionRepository().GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}

	connection.Status = status
	connection.UpdatedAt = time.Now().UTC()

	err = c.persistence.ConnectionRepository().SaveConnection(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to update connection status: %w", err)
	}

	return connection.Redacted(), nil
}

// Delete removes a connection.
func (c *Connection) Delete(ctx context.Context, id string) error {
	return c.persistence.ConnectionRepository().DeleteConnection(ctx, id)
}

func (c *Connection) seal(credentials map[string]string) ([]byte, map[string]string, error) {
	if len(credentials) == 0 {
		return nil, nil, ErrCredentialsRequired
	}

	if c.resolver == nil {
		return nil, nil, ErrVaultUnavailable
	}

	ciphertext, masked, err := c.resolver.Seal(credentials)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to seal credentials: %w", err)
	}

	return ciphertext, masked, nil
}
