package vault

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	v := newTestVault(t)

	var logs bytes.Buffer

	resolver := NewResolver(v, slog.New(slog.NewTextHandler(&logs, nil)))

	ciphertext, mask, err := resolver.Seal(map[string]string{"api_key": "key-123456"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"api_key": "****3456"}, mask)

	t.Run("ciphertext", func(t *testing.T) {
		secrets, err := resolver.Resolve(context.Background(), &models.Connection{ID: "c1", Ciphertext: ciphertext})
		require.NoError(t, err)
		assert.Equal(t, "key-123456", secrets["api_key"])
	})

	t.Run("legacy plaintext when no ciphertext", func(t *testing.T) {
		secrets, err := resolver.Resolve(context.Background(), &models.Connection{
			ID:          "c2",
			Credentials: map[string]string{"api_key": "legacy"},
		})
		require.NoError(t, err)
		assert.Equal(t, "legacy", secrets["api_key"])
	})

	t.Run("legacy fallback on decryption failure is logged", func(t *testing.T) {
		logs.Reset()

		corrupted := append([]byte(nil), ciphertext...)
		corrupted[len(corrupted)-1] ^= 0x01

		secrets, err := resolver.Resolve(context.Background(), &models.Connection{
			ID:          "c3",
			Ciphertext:  corrupted,
			Credentials: map[string]string{"api_key": "legacy"},
		})
		require.NoError(t, err)
		assert.Equal(t, "legacy", secrets["api_key"])
		assert.Contains(t, logs.String(), "Failed to decrypt connection credentials")
	})

	t.Run("decryption failure without fallback", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), &models.Connection{ID: "c4", Ciphertext: []byte("short")})
		require.Error(t, err)
		assert.True(t, IsDecryptionError(err))
	})

	t.Run("no secrets at all", func(t *testing.T) {
		secrets, err := resolver.Resolve(context.Background(), &models.Connection{ID: "c5"})
		require.NoError(t, err)
		assert.Empty(t, secrets)
	})
}
