package cmd

import (
	"encoding/base64"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/scenarios/pkg/persistence/file"
	"github.com/dukex/scenarios/pkg/runstate"
	"github.com/dukex/scenarios/pkg/vault"
)

func TestParsePersistenceScheme(t *testing.T) {
	assert.Equal(t, "file", parsePersistenceScheme("file://./data"))
	assert.Equal(t, "postgres", parsePersistenceScheme("postgres://user@localhost/db"))
	assert.Equal(t, "file", parsePersistenceScheme("./data"))
}

func TestNewPersistence(t *testing.T) {
	p, err := NewPersistence(t.Context(), slog.Default(), "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, p)

	_, err = NewPersistence(t.Context(), slog.Default(), "mongodb://localhost")
	require.Error(t, err)
}

func TestNewEventBus(t *testing.T) {
	bus, err := NewEventBus("gochannel", "", "scenarios-test", slog.Default())
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", "", "scenarios-test", slog.Default())
	require.Error(t, err)

	_, err = NewEventBus("rabbitmq", "", "scenarios-test", slog.Default())
	require.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(t.Context(), slog.Default(), "")
	require.NoError(t, err)

	_, ok := reg.HealthCheck()
	assert.True(t, ok)
}

func TestNewResolver(t *testing.T) {
	_, err := NewResolver("", slog.Default())
	require.ErrorIs(t, err, vault.ErrMissingKey)
	assert.True(t, vault.IsConfigurationError(err))

	_, err = NewResolver("not base64!", slog.Default())
	assert.True(t, vault.IsConfigurationError(err))

	key := base64.StdEncoding.EncodeToString(make([]byte, vault.KeySize))
	resolver, err := NewResolver(key, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, resolver)
}

func TestNewCancellationStore(t *testing.T) {
	store, err := NewCancellationStore(t.Context(), "")
	require.NoError(t, err)
	assert.IsType(t, &runstate.MemoryStore{}, store)

	server := miniredis.RunT(t)

	store, err = NewCancellationStore(t.Context(), "redis://"+server.Addr())
	require.NoError(t, err)
	require.NoError(t, store.Cancel(t.Context(), "run-1"))

	cancelled, err := store.IsCancelled(t.Context(), "run-1")
	require.NoError(t, err)
	assert.True(t, cancelled)
}

func TestNewRuntime(t *testing.T) {
	rt, err := NewRuntime(t.Context(), slog.Default(), Config{
		ServiceName: "scenarios-test",
		DatabaseURL: "file://" + t.TempDir(),
		EventBus:    "gochannel",
		VaultKey:    base64.StdEncoding.EncodeToString(make([]byte, vault.KeySize)),
	})
	require.NoError(t, err)

	assert.NotNil(t, rt.Resolver)
	assert.NotNil(t, rt.Scenarios)
	assert.NotEmpty(t, rt.Catalog.Transformations())

	require.NoError(t, rt.Close(t.Context()))
}

func TestNewRuntime_MissingVaultKey(t *testing.T) {
	_, err := NewRuntime(t.Context(), slog.Default(), Config{
		ServiceName: "scenarios-test",
		DatabaseURL: "file://" + t.TempDir(),
		EventBus:    "gochannel",
	})
	require.ErrorIs(t, err, vault.ErrMissingKey)
	assert.True(t, vault.IsConfigurationError(err))

	rt, err := NewRuntime(t.Context(), slog.Default(), Config{
		ServiceName:  "scenarios-test",
		DatabaseURL:  "file://" + t.TempDir(),
		EventBus:     "gochannel",
		WithoutVault: true,
	})
	require.NoError(t, err)
	assert.Nil(t, rt.Resolver)
	require.NoError(t, rt.Close(t.Context()))
}

func TestNewRuntime_UnsupportedEventBus(t *testing.T) {
	_, err := NewRuntime(t.Context(), slog.Default(), Config{
		DatabaseURL: "file://" + t.TempDir(),
		EventBus:    "rabbitmq",
		VaultKey:    base64.StdEncoding.EncodeToString(make([]byte, vault.KeySize)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq")
}
