package services

import (
	"log/slog"
	"testing"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/nodes/conditional"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnection_CreateAndGet(t *testing.T) {
	s := newTestServices(t)

	created, err := s.connection.Create(t.Context(), &CreateConnectionRequest{
		AppID:       "stripe",
		Name:        "Stripe live",
		OwnerID:     "owner-1",
		Credentials: map[string]string{"api_key": "sk_live_123456"},
	})
	require.NoError(t, err)

	assert.Nil(t, created.Ciphertext)
	assert.Equal(t, "****3456", created.MaskedCredentials["api_key"])
	assert.Equal(t, models.ConnectionStatusConnected, created.Status)

	stored, err := s.persistence.ConnectionRepository().GetConnection(t.Context(), created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Ciphertext)
	assert.NotContains(t, string(stored.Ciphertext), "sk_live_123456")

	fetched, err := s.connection.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.Ciphertext)

	list, err := s.connection.List(t.Context(), "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Ciphertext)
}

func TestConnection_Create_Validation(t *testing.T) {
	s := newTestServices(t)

	_, err := s.connection.Create(t.Context(), &CreateConnectionRequest{AppID: "a", Name: "n", OwnerID: "o"})
	require.ErrorIs(t, err, ErrCredentialsRequired)

	_, err = s.connection.Create(t.Context(), &CreateConnectionRequest{AppID: "a", Name: "n", Credentials: map[string]string{"k": "v"}})
	require.ErrorIs(t, err, ErrEmptyOwnerID)

	withoutVault := NewConnection(file.NewPersistence(t.TempDir()), nil, slog.Default())
	_, err = withoutVault.Create(t.Context(), &CreateConnectionRequest{AppID: "a", Name: "n", OwnerID: "o", Credentials: map[string]string{"k": "v"}})
	require.ErrorIs(t, err, ErrVaultUnavailable)
}

func TestConnection_Rotate(t *testing.T) {
	s := newTestServices(t)

	created, err := s.connection.Create(t.Context(), &CreateConnectionRequest{
		AppID:       "stripe",
		Name:        "Stripe live",
		OwnerID:     "owner-1",
		Credentials: map[string]string{"api_key": "sk_live_123456"},
	})
	require.NoError(t, err)

	before, err := s.persistence.ConnectionRepository().GetConnection(t.Context(), created.ID)
	require.NoError(t, err)

	_, err = s.connection.SetStatus(t.Context(), created.ID, models.ConnectionStatusError)
	require.NoError(t, err)

	rotated, err := s.connection.Rotate(t.Context(), created.ID, map[string]string{"api_key": "sk_live_abcdef"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "****cdef", rotated.MaskedCredentials["api_key"])
	assert.Equal(t, models.ConnectionStatusConnected, rotated.Status)

	after, err := s.persistence.ConnectionRepository().GetConnection(t.Context(), created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, before.Ciphertext, after.Ciphertext)
}

func TestConnection_SetStatusAndDelete(t *testing.T) {
	s := newTestServices(t)

	created, err := s.connection.Create(t.Context(), &CreateConnectionRequest{
		AppID:       "crm",
		Name:        "CRM",
		OwnerID:     "owner-1",
		Credentials: map[string]string{"token": "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "****", created.MaskedCredentials["token"])

	_, err = s.connection.SetStatus(t.Context(), created.ID, "unknown")
	require.ErrorIs(t, err, ErrInvalidConnectionStatus)

	updated, err := s.connection.SetStatus(t.Context(), created.ID, models.ConnectionStatusDisconnected)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusDisconnected, updated.Status)

	require.NoError(t, s.connection.Delete(t.Context(), created.ID))

	_, err = s.connection.Get(t.Context(), created.ID)
	assert.True(t, persistence.IsConnectionNotFound(err))
}

func TestCatalog(t *testing.T) {
	s := newTestServices(t)

	all := s.catalog.ListNodeTypes(NodeTypeFilter{})
	assert.NotEmpty(t, all)

	triggers := s.catalog.ListNodeTypes(NodeTypeFilter{Category: models.CategoryTypeTrigger})
	for _, definition := range triggers {
		assert.Equal(t, models.CategoryTypeTrigger, definition.Category)
	}

	definition, err := s.catalog.GetNodeType(conditional.Identifier)
	require.NoError(t, err)
	assert.Equal(t, conditional.Identifier, definition.Identifier)

	_, err = s.catalog.GetNodeType("nope")
	require.ErrorIs(t, err, ErrNodeTypeNotFound)

	_, err = s.catalog.ValidateNodeConfig("nope", nil)
	require.ErrorIs(t, err, ErrNodeTypeNotFound)

	assert.Contains(t, s.catalog.Transformations(), "toCents")
}
