package telemetry

import (
	"context"
	"testing"
)

func TestTracer_NoopByDefault(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "test")
	defer span.End()

	if span.SpanContext().IsSampled() {
		t.Error("expected no sampling without an installed provider")
	}
}
