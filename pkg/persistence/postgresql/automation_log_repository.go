package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
	"github.com/lib/pq"
)

// LogRepository is the append-only automation_logs store. Insertion order is
// kept by the seq column.
type LogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLogRepository creates a new automation log repository.
func NewLogRepository(db *sql.DB, logger *slog.Logger) *LogRepository {
	return &LogRepository{db: db, logger: logger}
}

const logColumns = `
			id
		  , scenario_id
		  , run_id
		  , node_id
		  , action
		  , status
		  , start_time
		  , end_time
		  , duration_ms
		  , input_data
		  , output_data
		  , error_message
		  , request_info
		  , response_info
		  , user_id
		  , timestamp`

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

func (r *LogRepository) Append(ctx context.Context, entry *models.AutomationLogEntry) error {
	inputJSON, err := marshalJSON("input data", entry.InputData)
	if err != nil {
		return err
	}

	outputJSON, err := marshalJSON("output data", entry.OutputData)
	if err != nil {
		return err
	}

	requestJSON, err := marshalJSON("request info", entry.RequestInfo)
	if err != nil {
		return err
	}

	responseJSON, err := marshalJSON("response info", entry.ResponseInfo)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automation_logs (` + logColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ScenarioID,
		entry.RunID,
		entry.NodeID,
		entry.Action,
		entry.Status,
		entry.StartTime,
		entry.EndTime,
		entry.DurationMs,
		inputJSON,
		outputJSON,
		entry.ErrorMessage,
		requestJSON,
		responseJSON,
		entry.UserID,
		entry.Timestamp,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return &persistence.LogEntryError{Op: "Append", EntryID: entry.ID, Err: persistence.ErrLogEntryExists}
		}

		return &persistence.LogEntryError{Op: "Append", EntryID: entry.ID, Err: err}
	}

	return nil
}

// Complete applies the single completion patch. The row is locked so that
// concurrent patches cannot both pass the running check.
func (r *LogRepository) Complete(ctx context.Context, id string, completion models.LogCompletion) (*models.AutomationLogEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	entry, err := scanLogEntry(tx.QueryRowContext(ctx, `SELECT `+logColumns+` FROM automation_logs WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &persistence.LogEntryError{Op: "Complete", EntryID: id, Err: persistence.ErrLogEntryNotFound}
		}

		return nil, &persistence.LogEntryError{Op: "Complete", EntryID: id, Err: err}
	}

	if entry.Status.IsFinal() {
		return nil, &persistence.LogEntryError{Op: "Complete", EntryID: id, Err: persistence.ErrLogEntryFinalized}
	}

	end := completion.EndTime
	duration := end.Sub(entry.StartTime).Milliseconds()

	entry.Status = completion.Status
	entry.EndTime = &end
	entry.DurationMs = &duration
	entry.OutputData = completion.OutputData
	entry.ErrorMessage = completion.ErrorMessage
	entry.ResponseInfo = completion.ResponseInfo

	if completion.RequestInfo != nil {
		entry.RequestInfo = completion.RequestInfo
	}

	requestJSON, err := marshalJSON("request info", entry.RequestInfo)
	if err != nil {
		return nil, err
	}

	outputJSON, err := marshalJSON("output data", entry.OutputData)
	if err != nil {
		return nil, err
	}

	responseJSON, err := marshalJSON("response info", entry.ResponseInfo)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE automation_logs SET
			status = $2,
			end_time = $3,
			duration_ms = $4,
			output_data = $5,
			error_message = $6,
			request_info = $7,
			response_info = $8
		WHERE id = $1 AND status = 'running'
	`, id, entry.Status, end, duration, outputJSON, entry.ErrorMessage, requestJSON, responseJSON)
	if err != nil {
		return nil, &persistence.LogEntryError{Op: "Complete", EntryID: id, Err: err}
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit log completion: %w", err)
	}

	return entry, nil
}

func (r *LogRepository) Get(ctx context.Context, id string) (*models.AutomationLogEntry, error) {
	entry, err := scanLogEntry(r.db.QueryRowContext(ctx, `SELECT `+logColumns+` FROM automation_logs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &persistence.LogEntryError{Op: "Get", EntryID: id, Err: persistence.ErrLogEntryNotFound}
		}

		return nil, &persistence.LogEntryError{Op: "Get", EntryID: id, Err: err}
	}

	return entry, nil
}

// Query returns matching entries in insertion order.
func (r *LogRepository) Query(ctx context.Context, filter models.LogFilter) ([]*models.AutomationLogEntry, error) {
	var (
		conditions []string
		args       []any
	)

	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, strings.Replace(condition, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if filter.ScenarioID != "" {
		add("scenario_id = ?", filter.ScenarioID)
	}

	if filter.RunID != "" {
		add("run_id = ?", filter.RunID)
	}

	if filter.NodeID != "" {
		add("node_id = ?", filter.NodeID)
	}

	if filter.Status != "" {
		add("status = ?", filter.Status)
	}

	if filter.From != nil {
		add("timestamp >= ?", *filter.From)
	}

	if filter.To != nil {
		add("timestamp <= ?", *filter.To)
	}

	query := `SELECT ` + logColumns + ` FROM automation_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY seq"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation logs: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	entries := make([]*models.AutomationLogEntry, 0)

	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation log entry: %w", err)
		}

		entries = append(entries, entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating automation logs: %w", err)
	}

	return entries, nil
}

func scanLogEntry(row scanner) (*models.AutomationLogEntry, error) {
	var (
		entry        models.AutomationLogEntry
		nodeID       sql.NullString
		errorMessage sql.NullString
		userID       sql.NullString
		inputJSON    []byte
		outputJSON   []byte
		requestJSON  []byte
		responseJSON []byte
	)

	err := row.Scan(
		&entry.ID,
		&entry.ScenarioID,
		&entry.RunID,
		&nodeID,
		&entry.Action,
		&entry.Status,
		&entry.StartTime,
		&entry.EndTime,
		&entry.DurationMs,
		&inputJSON,
		&outputJSON,
		&errorMessage,
		&requestJSON,
		&responseJSON,
		&userID,
		&entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	entry.NodeID = nodeID.String
	entry.ErrorMessage = errorMessage.String
	entry.UserID = userID.String

	if err := unmarshalJSON("input data", inputJSON, &entry.InputData); err != nil {
		return nil, err
	}

	if err := unmarshalJSON("output data", outputJSON, &entry.OutputData); err != nil {
		return nil, err
	}

	if err := unmarshalJSON("request info", requestJSON, &entry.RequestInfo); err != nil {
		return nil, err
	}

	if err := unmarshalJSON("response info", responseJSON, &entry.ResponseInfo); err != nil {
		return nil, err
	}

	return &entry, nil
}
