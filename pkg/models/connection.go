package models

import "time"

// ConnectionStatus represents the health of a stored credential set.
type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusError        ConnectionStatus = "error"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
)

// Connection is one external-account credential set. Ciphertext holds the
// vault payload; it is only ever replaced as a whole.
type Connection struct {
	ID                string            `json:"id"`
	AppID             string            `json:"app_id"                       validate:"required"`
	Name              string            `json:"name"                         validate:"required"`
	OwnerID           string            `json:"owner_id"                     validate:"required"`
	Status            ConnectionStatus  `json:"status"                       validate:"required,oneof=connected error disconnected"`
	Ciphertext        []byte            `json:"ciphertext,omitempty"`
	MaskedCredentials map[string]string `json:"masked_credentials,omitempty"`
	Credentials       map[string]string `json:"credentials,omitempty"` // Legacy plaintext, read-only fallback
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// IsExpired reports whether the connection's credentials passed their expiry.
func (c *Connection) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// Redacted returns a copy safe to hand outside the vault boundary.
func (c *Connection) Redacted() *Connection {
	redacted := *c
	redacted.Ciphertext = nil
	redacted.Credentials = nil

	return &redacted
}
