package transform

import (
	"context"
	"testing"

	"github.com/dukex/scenarios/pkg/protocol"
)

func TestHandler_Execute_ObjectOutput(t *testing.T) {
	req := &protocol.HandlerRequest{
		Config: map[string]any{
			"expression": `{"full_name": "{{.input.first_name}} {{.input.last_name}}", "order": "{{.trigger.order_id}}"}`,
		},
		Input:   map[string]any{"first_name": "Ada", "last_name": "Lovelace"},
		Trigger: map[string]any{"order_id": "A-1"},
	}

	result, err := (&Handler{}).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != protocol.HandlerStatusSuccess {
		t.Fatalf("Expected success status, got: %s (%s)", result.Status, result.ErrorMessage)
	}

	if result.Output["full_name"] != "Ada Lovelace" {
		t.Errorf("Expected full_name 'Ada Lovelace', got: %v", result.Output["full_name"])
	}

	if result.Output["order"] != "A-1" {
		t.Errorf("Expected order 'A-1', got: %v", result.Output["order"])
	}
}

func TestHandler_Execute_ScalarOutput(t *testing.T) {
	req := &protocol.HandlerRequest{
		Config: map[string]any{"expression": "{{.nodes.fetch.count}}"},
		Nodes:  map[string]any{"fetch": map[string]any{"count": 3}},
	}

	result, err := (&Handler{}).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Output["result"] != 3.0 {
		t.Errorf("Expected result 3, got: %v", result.Output["result"])
	}
}

func TestHandler_Execute_MissingExpression(t *testing.T) {
	result, err := (&Handler{}).Execute(context.Background(), &protocol.HandlerRequest{Config: map[string]any{}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != protocol.HandlerStatusError {
		t.Errorf("Expected error status, got: %s", result.Status)
	}

	if result.ErrorMessage != "missing required field 'expression'" {
		t.Errorf("Expected specific error message, got: %s", result.ErrorMessage)
	}
}

func TestHandler_Execute_InvalidTemplate(t *testing.T) {
	req := &protocol.HandlerRequest{Config: map[string]any{"expression": "{{.input.value"}}

	result, err := (&Handler{}).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != protocol.HandlerStatusError {
		t.Errorf("Expected error status, got: %s", result.Status)
	}
}

func TestFactory_Definition(t *testing.T) {
	definition := NewFactory().Definition()

	if definition.Identifier != Identifier {
		t.Errorf("Expected identifier %s, got: %s", Identifier, definition.Identifier)
	}

	if definition.RequiresConnection {
		t.Error("Transform should not require a connection")
	}
}
