package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
)

// ScenarioRepository handles scenario-related database operations.
type ScenarioRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewScenarioRepository creates a new scenario repository.
func NewScenarioRepository(db *sql.DB, logger *slog.Logger) *ScenarioRepository {
	return &ScenarioRepository{db: db, logger: logger}
}

const scenarioColumns = `
			id
		  , name
		  , description
		  , owner_id
		  , status
		  , schedule
		  , created_at
		  , updated_at`

// Save inserts or updates a scenario record.
func (r *ScenarioRepository) Save(ctx context.Context, scenario *models.Scenario) error {
	query := `
		INSERT INTO scenarios (id, name, description, owner_id, status, schedule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			owner_id = EXCLUDED.owner_id,
			status = EXCLUDED.status,
			schedule = EXCLUDED.schedule,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		scenario.ID,
		scenario.Name,
		scenario.Description,
		scenario.OwnerID,
		scenario.Status,
		sql.NullString{String: scenario.Schedule, Valid: scenario.Schedule != ""},
		scenario.CreatedAt,
		scenario.UpdatedAt,
	)
	if err != nil {
		return persistence.NewScenarioError("Save", scenario.ID, err)
	}

	return nil
}

func (r *ScenarioRepository) GetByID(ctx context.Context, id string) (*models.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios WHERE id = $1`

	scenario, err := r.scanScenario(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewScenarioError("GetByID", id, persistence.ErrScenarioNotFound)
		}

		return nil, persistence.NewScenarioError("GetByID", id, err)
	}

	return scenario, nil
}

// List returns scenarios ordered by creation time; an empty ownerID lists all.
func (r *ScenarioRepository) List(ctx context.Context, ownerID string) ([]*models.Scenario, error) {
	query := `SELECT ` + scenarioColumns + `
		FROM scenarios
		WHERE ($1 = '' OR owner_id = $1)
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	scenarios := make([]*models.Scenario, 0)

	for rows.Next() {
		scenario, err := r.scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}

		scenarios = append(scenarios, scenario)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating scenarios: %w", err)
	}

	return scenarios, nil
}

// Delete removes the scenario; nodes and edges cascade.
func (r *ScenarioRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scenarios WHERE id = $1", id)
	if err != nil {
		return persistence.NewScenarioError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewScenarioError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewScenarioError("Delete", id, persistence.ErrScenarioNotFound)
	}

	return nil
}

func (r *ScenarioRepository) scanScenario(row scanner) (*models.Scenario, error) {
	var (
		scenario models.Scenario
		schedule sql.NullString
	)

	err := row.Scan(
		&scenario.ID,
		&scenario.Name,
		&scenario.Description,
		&scenario.OwnerID,
		&scenario.Status,
		&schedule,
		&scenario.CreatedAt,
		&scenario.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	scenario.Schedule = schedule.String

	return &scenario, nil
}
