package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func findAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestRoleAttributes(t *testing.T) {
	attrs := RoleAttributes("writer", "acting", "run-1", 2)
	if v, ok := findAttr(attrs, AttrRoleName); !ok || v.AsString() != "writer" {
		t.Errorf("missing role name attribute: %v", attrs)
	}
	if v, ok := findAttr(attrs, AttrRunRound); !ok || v.AsInt64() != 2 {
		t.Errorf("missing round attribute: %v", attrs)
	}

	// Optional fields are omitted when zero.
	minimal := RoleAttributes("writer", "", "", 0)
	if len(minimal) != 1 {
		t.Errorf("expected only the role name, got %v", minimal)
	}
}

func TestMessageAttributes(t *testing.T) {
	attrs := MessageAttributes("id-1", "Draft", 7)
	if v, ok := findAttr(attrs, AttrMessageCauseBy); !ok || v.AsString() != "Draft" {
		t.Errorf("missing cause_by attribute: %v", attrs)
	}
	if v, ok := findAttr(attrs, AttrMessageTS); !ok || v.AsInt64() != 7 {
		t.Errorf("missing timestamp attribute: %v", attrs)
	}
}

func TestConfigureSlogFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "debug", "json")
	logger.DebugContext(context.Background(), "hello", slog.String("k", "v"))

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("expected json output, got %q", out)
	}

	// Without an active span no trace ids are attached.
	if strings.Contains(out, "trace_id") {
		t.Errorf("unexpected trace_id without a span: %q", out)
	}
}
