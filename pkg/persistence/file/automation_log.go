package file

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/persistence"
)

// LogRepository stores the entries of each run, in append order, in
// {root}/logs/{runID}.json.
type LogRepository struct {
	p     *Persistence
	index map[string]string // entry id -> run id
}

func (r *LogRepository) runPath(runID string) string {
	return r.p.path("logs", runID+".json")
}

func (r *LogRepository) readRun(runID string) ([]*models.AutomationLogEntry, error) {
	var entries []*models.AutomationLogEntry

	err := readJSON(r.runPath(runID), &entries, fs.ErrNotExist)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return entries, nil
}

// Append adds an entry to its run. Entry ids are unique across runs.
func (r *LogRepository) Append(_ context.Context, entry *models.AutomationLogEntry) error {
	if err := validateID(entry.RunID); err != nil {
		return err
	}

	if err := validateID(entry.ID); err != nil {
		return err
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if _, err := r.locate(entry.ID); err == nil {
		return &persistence.LogEntryError{Op: "Append", EntryID: entry.ID, Err: persistence.ErrLogEntryExists}
	}

	entries, err := r.readRun(entry.RunID)
	if err != nil {
		return err
	}

	stored := *entry
	entries = append(entries, &stored)

	if err := writeJSON(r.runPath(entry.RunID), entries); err != nil {
		return err
	}

	r.index[entry.ID] = entry.RunID

	return nil
}

// Complete applies the single completion patch to a running entry.
func (r *LogRepository) Complete(_ context.Context, id string, completion models.LogCompletion) (*models.AutomationLogEntry, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	runID, err := r.locate(id)
	if err != nil {
		return nil, err
	}

	entries, err := r.readRun(runID)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(entries, func(e *models.AutomationLogEntry) bool { return e.ID == id })
	if i < 0 {
		return nil, &persistence.LogEntryError{Op: "Complete", EntryID: id, Err: persistence.ErrLogEntryNotFound}
	}

	entry := entries[i]
	if entry.Status.IsFinal() {
		return nil, &persistence.LogEntryError{Op: "Complete", EntryID: id, Err: persistence.ErrLogEntryFinalized}
	}

	applyCompletion(entry, completion)

	if err := writeJSON(r.runPath(runID), entries); err != nil {
		return nil, err
	}

	completed := *entry

	return &completed, nil
}

func (r *LogRepository) Get(_ context.Context, id string) (*models.AutomationLogEntry, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	runID, err := r.locate(id)
	if err != nil {
		return nil, err
	}

	entries, err := r.readRun(runID)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}

	return nil, &persistence.LogEntryError{Op: "Get", EntryID: id, Err: persistence.ErrLogEntryNotFound}
}

// Query returns matching entries in append order within a run; runs are
// ordered by their first entry's timestamp.
func (r *LogRepository) Query(_ context.Context, filter models.LogFilter) ([]*models.AutomationLogEntry, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var runs [][]*models.AutomationLogEntry

	if filter.RunID != "" {
		if err := validateID(filter.RunID); err != nil {
			return nil, err
		}

		entries, err := r.readRun(filter.RunID)
		if err != nil {
			return nil, err
		}

		runs = append(runs, entries)
	} else {
		all, err := r.readAllRuns()
		if err != nil {
			return nil, err
		}

		runs = all
	}

	slices.SortStableFunc(runs, func(a, b []*models.AutomationLogEntry) int {
		if len(a) == 0 || len(b) == 0 {
			return len(a) - len(b)
		}

		if c := a[0].Timestamp.Compare(b[0].Timestamp); c != 0 {
			return c
		}

		return strings.Compare(a[0].RunID, b[0].RunID)
	})

	var result []*models.AutomationLogEntry

	for _, entries := range runs {
		for _, e := range entries {
			if !filter.Matches(e) {
				continue
			}

			result = append(result, e)

			if filter.Limit > 0 && len(result) >= filter.Limit {
				return result, nil
			}
		}
	}

	return result, nil
}

func (r *LogRepository) readAllRuns() ([][]*models.AutomationLogEntry, error) {
	files, err := filepath.Glob(r.p.path("logs", "*.json"))
	if err != nil {
		return nil, err
	}

	runs := make([][]*models.AutomationLogEntry, 0, len(files))

	for _, name := range files {
		entries, err := r.readRun(strings.TrimSuffix(filepath.Base(name), ".json"))
		if err != nil {
			return nil, err
		}

		runs = append(runs, entries)
	}

	return runs, nil
}

// locate finds the run holding an entry, rebuilding the index from disk on a miss.
func (r *LogRepository) locate(id string) (string, error) {
	if runID, ok := r.index[id]; ok {
		return runID, nil
	}

	runs, err := r.readAllRuns()
	if err != nil {
		return "", err
	}

	for _, entries := range runs {
		for _, e := range entries {
			r.index[e.ID] = e.RunID
		}
	}

	if runID, ok := r.index[id]; ok {
		return runID, nil
	}

	return "", &persistence.LogEntryError{Op: "Locate", EntryID: id, Err: persistence.ErrLogEntryNotFound}
}

func applyCompletion(entry *models.AutomationLogEntry, completion models.LogCompletion) {
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
}
