package vault

import (
	"context"
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
)

// Resolver reads a connection's secrets. It is the only path through which
// plaintext leaves the vault boundary.
type Resolver struct {
	vault  *Vault
	logger *slog.Logger
}

// NewResolver creates a resolver backed by the given vault.
func NewResolver(vault *Vault, logger *slog.Logger) *Resolver {
	return &Resolver{vault: vault, logger: logger}
}

// Resolve returns the plaintext secrets of a connection. The ciphertext is
// tried first; on absence or failure the legacy plaintext credentials are used.
// A decryption failure with no legacy fallback is returned as a DecryptionError.
func (r *Resolver) Resolve(ctx context.Context, connection *models.Connection) (map[string]string, error) {
	logger := r.logger.With("connection_id", connection.ID, "app_id", connection.AppID)

	if len(connection.Ciphertext) > 0 {
		secrets, err := r.vault.Decrypt(connection.Ciphertext)
		if err == nil {
			return secrets, nil
		}

		logger.ErrorContext(ctx, "Failed to decrypt connection credentials", "error", err)

		if len(connection.Credentials) == 0 {
			return nil, err
		}

		logger.WarnContext(ctx, "Falling back to legacy plaintext credentials")

		return copySecrets(connection.Credentials), nil
	}

	if len(connection.Credentials) > 0 {
		logger.WarnContext(ctx, "Connection has no ciphertext, using legacy plaintext credentials")

		return copySecrets(connection.Credentials), nil
	}

	return map[string]string{}, nil
}

// Seal encrypts a secret record and computes its display mask in one step, so
// both can be written together.
func (r *Resolver) Seal(record map[string]string) ([]byte, map[string]string, error) {
	ciphertext, err := r.vault.Encrypt(record)
	if err != nil {
		return nil, nil, err
	}

	return ciphertext, Mask(record), nil
}

func copySecrets(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
