// Package protocol defines the contracts between the run executor and node handlers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/template"
)

// HandlerStatus is the outcome a handler declares for one invocation.
type HandlerStatus string

const (
	HandlerStatusSuccess HandlerStatus = "success"
	HandlerStatusError   HandlerStatus = "error"
)

// ResolvedConnection carries decrypted secrets to a handler. It must never be
// persisted or logged.
type ResolvedConnection struct {
	ID      string
	AppID   string
	Name    string
	Secrets map[string]string
}

// HandlerRequest is everything a handler receives for one node step.
type HandlerRequest struct {
	Identifier string
	ScenarioID string
	RunID      string
	NodeID     string
	Input      map[string]any
	Config     map[string]any
	Connection *ResolvedConnection

	// Trigger and Nodes expose the run's trigger payload and the outputs of
	// nodes executed so far, for templated config values.
	Trigger map[string]any
	Nodes   map[string]any
}

// TemplateContext returns the context config templates are rendered against.
func (r *HandlerRequest) TemplateContext() *template.Context {
	return &template.Context{
		ScenarioID: r.ScenarioID,
		RunID:      r.RunID,
		NodeID:     r.NodeID,
		Input:      r.Input,
		Trigger:    r.Trigger,
		Nodes:      r.Nodes,
	}
}

// Secret returns a decrypted connection secret, or "" without a connection.
func (r *HandlerRequest) Secret(key string) string {
	if r.Connection == nil {
		return ""
	}

	return r.Connection.Secrets[key]
}

// HandlerResult is what a handler reports back. Branch, when set, selects the
// outgoing edges to follow.
type HandlerResult struct {
	Status       HandlerStatus
	Output       map[string]any
	ErrorMessage string
	Branch       string
	RequestInfo  *models.RequestInfo
	ResponseInfo *models.RequestInfo
}

// Handler executes one node type. Implementations are treated as opaque,
// possibly slow and possibly failing remote calls.
type Handler interface {
	Execute(ctx context.Context, req *HandlerRequest) (*HandlerResult, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *HandlerRequest) (*HandlerResult, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, req *HandlerRequest) (*HandlerResult, error) {
	return f(ctx, req)
}

// HandlerFactory pairs a node definition with the handler that executes it.
// Plugins export a HandlerFactory under the symbol "Handler".
type HandlerFactory interface {
	Definition() models.IntegrationNodeDefinition
	Create(logger *slog.Logger) (Handler, error)
}

// Success builds a successful result.
func Success(output map[string]any) *HandlerResult {
	return &HandlerResult{Status: HandlerStatusSuccess, Output: output}
}

// Failure builds a failed result with a human readable message.
func Failure(message string) *HandlerResult {
	return &HandlerResult{Status: HandlerStatusError, ErrorMessage: message}
}

// WithBranch sets the declared branch outcome.
func (r *HandlerResult) WithBranch(branch string) *HandlerResult {
	r.Branch = branch

	return r
}
