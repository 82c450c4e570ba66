package models

import (
	"slices"
	"strings"
	"time"
)

// LogStatus is the status of an automation log entry.
type LogStatus string

const (
	LogStatusRunning   LogStatus = "running"
	LogStatusSuccess   LogStatus = "success"
	LogStatusError     LogStatus = "error"
	LogStatusSkipped   LogStatus = "skipped"
	LogStatusCancelled LogStatus = "cancelled"
)

// IsFinal reports whether an entry in this status can no longer be patched.
func (s LogStatus) IsFinal() bool {
	return s != LogStatusRunning
}

// Reserved log actions for run boundaries.
const (
	ActionScenarioStart    = "scenario_start"
	ActionScenarioComplete = "scenario_complete"
)

// RequestInfo captures request or response metadata reported by a handler.
// Headers are expected to be masked before they reach the log.
type RequestInfo struct {
	Endpoint   string            `json:"endpoint,omitempty"`
	Method     string            `json:"method,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
}

// MaskedHeaderValue replaces the value of sensitive headers.
const MaskedHeaderValue = "****"

var sensitiveHeaders = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
	"api-key",
	"x-auth-token",
}

// IsSensitiveHeader reports whether a header carries credentials.
func IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, h := range sensitiveHeaders {
		if lower == h {
			return true
		}
	}

	return strings.Contains(lower, "token") || strings.Contains(lower, "secret")
}

// Masked returns a copy with sensitive header values replaced. Headers named
// in also are masked regardless of their name.
func (r *RequestInfo) Masked(also ...string) *RequestInfo {
	if r == nil {
		return nil
	}

	masked := *r
	if r.Headers != nil {
		masked.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			if IsSensitiveHeader(k) || slices.ContainsFunc(also, func(name string) bool { return strings.EqualFold(name, k) }) {
				v = MaskedHeaderValue
			}

			masked.Headers[k] = v
		}
	}

	return &masked
}

// AutomationLogEntry is one append-only record of a run.
type AutomationLogEntry struct {
	ID           string         `json:"id"`
	ScenarioID   string         `json:"scenario_id"`
	RunID        string         `json:"run_id"`
	NodeID       string         `json:"node_id,omitempty"`
	Action       string         `json:"action"`
	Status       LogStatus      `json:"status"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      *time.Time     `json:"end_time,omitempty"`
	DurationMs   *int64         `json:"duration_ms,omitempty"`
	InputData    map[string]any `json:"input_data,omitempty"`
	OutputData   map[string]any `json:"output_data,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	RequestInfo  *RequestInfo   `json:"request_info,omitempty"`
	ResponseInfo *RequestInfo   `json:"response_info,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// IsNodeEntry reports whether the entry records a node step rather than a run boundary.
func (e *AutomationLogEntry) IsNodeEntry() bool {
	return e.NodeID != "" && e.Action != ActionScenarioStart && e.Action != ActionScenarioComplete
}

// LogCompletion is the only patch allowed on a running entry. RequestInfo,
// when set, fills request metadata only known after dispatch.
type LogCompletion struct {
	Status       LogStatus      `json:"status"`
	EndTime      time.Time      `json:"end_time"`
	OutputData   map[string]any `json:"output_data,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	RequestInfo  *RequestInfo   `json:"request_info,omitempty"`
	ResponseInfo *RequestInfo   `json:"response_info,omitempty"`
}

// LogFilter selects automation log entries. Zero values are ignored.
type LogFilter struct {
	ScenarioID string     `json:"scenario_id,omitempty"`
	RunID      string     `json:"run_id,omitempty"`
	NodeID     string     `json:"node_id,omitempty"`
	Status     LogStatus  `json:"status,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Limit      int        `json:"limit,omitempty"`
}

// Matches reports whether the entry satisfies the filter.
func (f LogFilter) Matches(entry *AutomationLogEntry) bool {
	if f.ScenarioID != "" && entry.ScenarioID != f.ScenarioID {
		return false
	}

	if f.RunID != "" && entry.RunID != f.RunID {
		return false
	}

	if f.NodeID != "" && entry.NodeID != f.NodeID {
		return false
	}

	if f.Status != "" && entry.Status != f.Status {
		return false
	}

	if f.From != nil && entry.Timestamp.Before(*f.From) {
		return false
	}

	if f.To != nil && entry.Timestamp.After(*f.To) {
		return false
	}

	return true
}

// RunState is the lifecycle state of a run.
type RunState string

const (
	RunStatePending   RunState = "pending"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
	RunStateCancelled RunState = "cancelled"
)

// NodeRunStatus summarises one node's outcome within a run.
type NodeRunStatus struct {
	NodeID       string     `json:"node_id"`
	Action       string     `json:"action"`
	Status       LogStatus  `json:"status"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// RunStatus is the state of one run, derived from its log entries.
type RunStatus struct {
	RunID        string          `json:"run_id"`
	ScenarioID   string          `json:"scenario_id"`
	Status       RunState        `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	NodeStatuses []NodeRunStatus `json:"node_statuses"`
}
