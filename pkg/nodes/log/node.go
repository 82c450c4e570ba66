// Package log provides the logging node.
package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/scenarios/pkg/protocol"
	"github.com/dukex/scenarios/pkg/template"
)

// LogLevel represents different logging levels.
type LogLevel int

const (
	Debug LogLevel = iota
	Info
	Warn
	Error
)

var logLevelName = map[LogLevel]string{
	Debug: "debug",
	Info:  "info",
	Warn:  "warn",
	Error: "error",
}

// Handler writes a templated message to the engine's logger and passes its
// input through.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Execute performs the logging operation.
func (h *Handler) Execute(ctx context.Context, req *protocol.HandlerRequest) (*protocol.HandlerResult, error) {
	messageTemplate, ok := req.Config["message"].(string)
	if !ok {
		return protocol.Failure("missing required field 'message'"), nil
	}

	level := logLevelName[Info]
	if lvl, ok := req.Config["level"].(string); ok {
		level = lvl
	}

	rendered, err := template.RenderWithContext(messageTemplate, req.TemplateContext())
	if err != nil {
		return protocol.Failure(fmt.Sprintf("failed to render log message template: %v", err)), nil
	}

	message := fmt.Sprintf("%v", rendered)

	logger := h.logger.With("scenario_id", req.ScenarioID, "run_id", req.RunID, "node_id", req.NodeID)

	switch level {
	case logLevelName[Debug]:
		logger.DebugContext(ctx, message)
	case logLevelName[Warn]:
		logger.WarnContext(ctx, message)
	case logLevelName[Error]:
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	output := make(map[string]any, len(req.Input)+2)
	for k, v := range req.Input {
		output[k] = v
	}

	output["message"] = message
	output["level"] = level

	return protocol.Success(output), nil
}
