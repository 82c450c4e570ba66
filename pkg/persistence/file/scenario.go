package file

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
)

// ScenarioRepository stores scenarios under {root}/scenarios.
type ScenarioRepository struct {
	p *Persistence
}

func (r *ScenarioRepository) Save(_ context.Context, scenario *models.Scenario) error {
	if err := validateID(scenario.ID); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return writeJSON(r.p.path("scenarios", scenario.ID+".json"), scenario)
}

func (r *ScenarioRepository) GetByID(_ context.Context, id string) (*models.Scenario, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var scenario models.Scenario

	err := readJSON(r.p.path("scenarios", id+".json"), &scenario, persistence.NewScenarioError("GetByID", id, persistence.ErrScenarioNotFound))
	if err != nil {
		return nil, err
	}

	return &scenario, nil
}

// List returns scenarios ordered by creation time; an empty ownerID lists all.
func (r *ScenarioRepository) List(_ context.Context, ownerID string) ([]*models.Scenario, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	scenarios, err := readAll[models.Scenario](r.p.path("scenarios"))
	if err != nil {
		return nil, err
	}

	if ownerID != "" {
		scenarios = slices.DeleteFunc(scenarios, func(s *models.Scenario) bool {
			return s.OwnerID != ownerID
		})
	}

	slices.SortFunc(scenarios, func(a, b *models.Scenario) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return scenarios, nil
}

// Delete removes the scenario with its nodes and edges.
func (r *ScenarioRepository) Delete(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	err := removeFile(r.p.path("scenarios", id+".json"), persistence.NewScenarioError("Delete", id, persistence.ErrScenarioNotFound))
	if err != nil {
		return err
	}

	for _, dir := range []string{"nodes", "edges"} {
		if err := os.RemoveAll(r.p.path(dir, id)); err != nil {
			return fmt.Errorf("failed to remove %s of scenario %s: %w", dir, id, err)
		}
	}

	return nil
}
