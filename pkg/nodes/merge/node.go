// Package merge provides the join node used where several branches converge.
package merge

import (
	"context"
	"fmt"

	"github.com/dukex/scenarios/pkg/protocol"
)

const (
	MergeModeFlat = "flat"
	MergeModeNest = "nest"
)

// Handler emits the input it receives. Inbound edge outputs are already
// combined by the executor, last writer wins, so in flat mode the node is a
// join point; in nest mode the combined input is placed under a key.
type Handler struct{}

func (h *Handler) Execute(_ context.Context, req *protocol.HandlerRequest) (*protocol.HandlerResult, error) {
	mode := MergeModeFlat
	if m, ok := req.Config["merge_mode"].(string); ok && m != "" {
		mode = m
	}

	switch mode {
	case MergeModeFlat:
		output := make(map[string]any, len(req.Input))
		for k, v := range req.Input {
			output[k] = v
		}

		return protocol.Success(output), nil
	case MergeModeNest:
		key, ok := req.Config["key"].(string)
		if !ok || key == "" {
			return protocol.Failure("merge_mode 'nest' requires field 'key'"), nil
		}

		return protocol.Success(map[string]any{key: req.Input}), nil
	default:
		return protocol.Failure(fmt.Sprintf("unknown merge mode: %s", mode)), nil
	}
}
