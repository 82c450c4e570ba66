package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/dukex/scenarios/pkg/persistence/postgresql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"automation_logs", "connections", "scenario_edges", "scenario_nodes", "scenarios", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("scenarios_test"),
			postgres.WithUsername("scenarios"),
			postgres.WithPassword("scenarios"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func testScenario(id string) *models.Scenario {
	now := time.Now().UTC().Truncate(time.Microsecond)

	return &models.Scenario{
		ID:        id,
		Name:      "Order sync",
		OwnerID:   "owner-a",
		Status:    models.ScenarioStatusActive,
		Schedule:  "*/5 * * * *",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestScenarioRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ScenarioRepository()

	scenario := testScenario("s-1")
	require.NoError(t, repo.Save(ctx, scenario))

	got, err := repo.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, scenario.Name, got.Name)
	assert.Equal(t, scenario.Schedule, got.Schedule)

	scenario.Status = models.ScenarioStatusInactive
	require.NoError(t, repo.Save(ctx, scenario))

	listed, err := repo.List(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.ScenarioStatusInactive, listed[0].Status)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, persistence.IsScenarioNotFound(err))
}

func TestGraphRepositories_CascadeOnScenarioDelete(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	require.NoError(t, p.ScenarioRepository().Save(ctx, testScenario("s-1")))

	connectionID := "c-1"
	nodes := []*models.ScenarioNode{
		{ID: "trigger", ScenarioID: "s-1", IntegrationNodeID: "trigger:manual", Label: "Start", IsSystem: true, Order: 0},
		{
			ID:                "charge",
			ScenarioID:        "s-1",
			IntegrationNodeID: "http_request",
			Label:             "Charge",
			ConnectionID:      &connectionID,
			Config:            map[string]any{"url": "https://api.example.com/charges", "method": "POST"},
			LockedProperties:  []string{"url"},
			Order:             1,
		},
	}

	for _, node := range nodes {
		require.NoError(t, p.NodeRepository().SaveNode(ctx, node))
	}

	edge := &models.ScenarioNodeConnection{
		ID:           "e-1",
		ScenarioID:   "s-1",
		SourceNodeID: "trigger",
		TargetNodeID: "charge",
		Mapping: []models.FieldMapping{
			{SourceField: "amount", TargetField: "amount_cents", TransformationFunctionID: "toCents"},
		},
	}
	require.NoError(t, p.EdgeRepository().SaveEdge(ctx, edge))

	graph, err := persistence.LoadGraph(ctx, p, "s-1")
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "trigger", graph.Nodes[0].ID)
	assert.Equal(t, "c-1", *graph.Nodes[1].ConnectionID)
	assert.Equal(t, []string{"url"}, graph.Nodes[1].LockedProperties)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, edge.Mapping, graph.Edges[0].Mapping)

	require.NoError(t, p.ScenarioRepository().Delete(ctx, "s-1"))

	graph, err = persistence.LoadGraph(ctx, p, "s-1")
	require.NoError(t, err)
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)

	err = p.NodeRepository().DeleteNode(ctx, "s-1", "charge")
	assert.True(t, persistence.IsNodeNotFound(err))
}

func TestConnectionRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ConnectionRepository()

	now := time.Now().UTC().Truncate(time.Microsecond)
	expires := now.Add(time.Hour)
	connection := &models.Connection{
		ID:                "c-1",
		AppID:             "stripe",
		Name:              "Stripe",
		OwnerID:           "owner-a",
		Status:            models.ConnectionStatusConnected,
		Ciphertext:        []byte{0xde, 0xad, 0xbe, 0xef},
		MaskedCredentials: map[string]string{"api_key": "sk_t****abcd"},
		ExpiresAt:         &expires,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, repo.SaveConnection(ctx, connection))

	got, err := repo.GetConnection(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, connection.Ciphertext, got.Ciphertext)
	assert.Equal(t, connection.MaskedCredentials, got.MaskedCredentials)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expires.Equal(*got.ExpiresAt))

	listed, err := repo.ListConnections(ctx, "owner-b")
	require.NoError(t, err)
	assert.Empty(t, listed)

	require.NoError(t, repo.DeleteConnection(ctx, "c-1"))

	_, err = repo.GetConnection(ctx, "c-1")
	assert.True(t, persistence.IsConnectionNotFound(err))
}

func TestLogRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.LogRepository()

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"e-2", "e-1"} {
		require.NoError(t, repo.Append(ctx, &models.AutomationLogEntry{
			ID:         id,
			ScenarioID: "s-1",
			RunID:      "run-1",
			NodeID:     "n-" + id,
			Action:     "log",
			Status:     models.LogStatusRunning,
			StartTime:  start,
			InputData:  map[string]any{"x": 1.0},
			RequestInfo: &models.RequestInfo{
				Method:  "GET",
				Headers: map[string]string{"Authorization": models.MaskedHeaderValue},
			},
			Timestamp: start,
		}))
	}

	err := repo.Append(ctx, &models.AutomationLogEntry{ID: "e-1", ScenarioID: "s-1", RunID: "run-2", Action: "log", Status: models.LogStatusRunning, StartTime: start, Timestamp: start})
	require.ErrorIs(t, err, persistence.ErrLogEntryExists)

	completed, err := repo.Complete(ctx, "e-2", models.LogCompletion{
		Status:     models.LogStatusSuccess,
		EndTime:    start.Add(250 * time.Millisecond),
		OutputData: map[string]any{"ok": true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), *completed.DurationMs)

	_, err = repo.Complete(ctx, "e-2", models.LogCompletion{Status: models.LogStatusError, EndTime: start})
	require.ErrorIs(t, err, persistence.ErrLogEntryFinalized)

	_, err = repo.Complete(ctx, "missing", models.LogCompletion{Status: models.LogStatusError, EndTime: start})
	require.ErrorIs(t, err, persistence.ErrLogEntryNotFound)

	entries, err := repo.Query(ctx, models.LogFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e-2", entries[0].ID)
	assert.Equal(t, "e-1", entries[1].ID)
	assert.Equal(t, models.MaskedHeaderValue, entries[1].RequestInfo.Headers["Authorization"])

	running, err := repo.Query(ctx, models.LogFilter{Status: models.LogStatusRunning, Limit: 5})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "e-1", running[0].ID)
}
