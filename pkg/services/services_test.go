package services

import (
	"crypto/rand"
	"log/slog"
	"testing"

	"github.com/dukex/scenarios/pkg/automationlog"
	"github.com/dukex/scenarios/pkg/executor"
	"github.com/dukex/scenarios/pkg/mapping"
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence/file"
	"github.com/dukex/scenarios/pkg/registry"
	"github.com/dukex/scenarios/pkg/vault"
	"github.com/stretchr/testify/require"
)

type testServices struct {
	persistence *file.Persistence
	registry    *registry.Registry
	scenario    *Scenario
	graph       *Graph
	connection  *Connection
	catalog     *Catalog
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(slog.Default())
	require.NoError(t, reg.RegisterDefaultNodes())

	key := make([]byte, vault.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	v, err := vault.New(key)
	require.NoError(t, err)

	resolver := vault.NewResolver(v, slog.Default())
	catalog := mapping.NewDefaultCatalog()
	logs := automationlog.New(p.LogRepository(), slog.Default())
	exec := executor.New(p, reg, mapping.NewMapper(catalog), logs, slog.Default(), executor.WithVault(resolver))

	return &testServices{
		persistence: p,
		registry:    reg,
		scenario:    NewScenario(p, exec, logs, slog.Default()),
		graph:       NewGraph(p, reg, catalog),
		connection:  NewConnection(p, resolver, slog.Default()),
		catalog:     NewCatalog(reg, catalog),
	}
}

func (s *testServices) createScenario(t *testing.T) *models.Scenario {
	t.Helper()

	scenario, err := s.scenario.Create(t.Context(), &models.Scenario{
		Name:    "Order sync",
		OwnerID: "owner-1",
	})
	require.NoError(t, err)

	return scenario
}

func (s *testServices) createNode(t *testing.T, scenarioID, identifier string, order int, config map[string]any) *models.ScenarioNode {
	t.Helper()

	node, err := s.graph.CreateNode(t.Context(), scenarioID, &CreateNodeRequest{
		IntegrationNodeID: identifier,
		Label:             identifier,
		Config:            config,
		Order:             order,
	})
	require.NoError(t, err)

	return node
}

func (s *testServices) connect(t *testing.T, scenarioID, from, to string) *models.ScenarioNodeConnection {
	t.Helper()

	edge, _, err := s.graph.CreateEdge(t.Context(), scenarioID, &CreateEdgeRequest{
		SourceNodeID: from,
		TargetNodeID: to,
	})
	require.NoError(t, err)

	return edge
}
