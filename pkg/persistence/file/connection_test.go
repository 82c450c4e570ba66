package file

import (
	"testing"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRepository(t *testing.T) {
	repo := NewPersistence(t.TempDir()).ConnectionRepository()
	ctx := t.Context()

	stripe := &models.Connection{
		ID:                "c-1",
		AppID:             "stripe",
		Name:              "Stripe live",
		OwnerID:           "owner-a",
		Status:            models.ConnectionStatusConnected,
		Ciphertext:        []byte{0x01, 0x02, 0x03},
		MaskedCredentials: map[string]string{"api_key": "sk_l****1234"},
	}
	hubspot := &models.Connection{
		ID:      "c-2",
		AppID:   "hubspot",
		Name:    "HubSpot",
		OwnerID: "owner-b",
		Status:  models.ConnectionStatusError,
	}

	require.NoError(t, repo.SaveConnection(ctx, stripe))
	require.NoError(t, repo.SaveConnection(ctx, hubspot))

	got, err := repo.GetConnection(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, stripe.Ciphertext, got.Ciphertext)
	assert.Equal(t, stripe.MaskedCredentials, got.MaskedCredentials)

	all, err := repo.ListConnections(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "HubSpot", all[0].Name)

	owned, err := repo.ListConnections(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "c-1", owned[0].ID)

	require.NoError(t, repo.DeleteConnection(ctx, "c-1"))

	_, err = repo.GetConnection(ctx, "c-1")
	assert.True(t, persistence.IsConnectionNotFound(err))
}
