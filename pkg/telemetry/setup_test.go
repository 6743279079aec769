package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracerDisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer(context.Background(), Config{ServiceName: "trafficlight-test", Writer: &buf})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("disabled tracer wrote output: %q", buf.String())
	}
}

func TestInitTracerExportsSpansWithResource(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracer(context.Background(), Config{
		ServiceName: "trafficlight-test",
		Enabled:     true,
		InstanceID:  "replica-a",
		Writer:      &buf,
	})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "junction.get")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"junction.get", "trafficlight-test", "replica-a"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in exported span, got %q", want, out)
		}
	}
}
