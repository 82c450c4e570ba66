package otelhelper_test

import (
	"errors"
	"testing"

	"github.com/dukex/scenarios/pkg/otelhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanAndSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, span := otelhelper.StartSpan(t.Context(), tracer, "executor.node",
		attribute.String(otelhelper.NodeIDKey, "fetch"),
	)
	otelhelper.SetError(span, errors.New("boom"), attribute.String(otelhelper.RunIDKey, "run-1"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "executor.node", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Contains(t, spans[0].Attributes(), attribute.String(otelhelper.NodeIDKey, "fetch"))
}

func TestDefaultTracer(t *testing.T) {
	tracer := otelhelper.DefaultTracer("scenarios")

	_, span := otelhelper.StartSpan(t.Context(), tracer, "noop")
	span.End()

	assert.NotNil(t, span)
}
