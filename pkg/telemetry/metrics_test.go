package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/ensembleai/ensemble/pkg/errors"
)

func TestNewRunMetrics(t *testing.T) {
	m, err := NewRunMetrics()
	if err != nil {
		t.Fatalf("NewRunMetrics failed: %v", err)
	}
	if m == nil {
		t.Fatal("expected metrics instance")
	}

	// Recording against the default (noop) meter provider must not panic.
	ctx := context.Background()
	m.RecordPublish(ctx, "writer", "Draft")
	m.RecordRound(ctx)
	m.RecordRetry(ctx, "writer", "Draft")
	m.RecordRoleFailure(ctx, "writer", errors.New(errors.CodeRateLimit, "limited", nil))
	m.RecordRunDuration(ctx, "run-1", 3*time.Second)
}

func TestNilRunMetricsAreInert(t *testing.T) {
	var m *RunMetrics
	ctx := context.Background()
	m.RecordPublish(ctx, "writer", "Draft")
	m.RecordRound(ctx)
	m.RecordRetry(ctx, "writer", "Draft")
	m.RecordRoleFailure(ctx, "writer", errors.New(errors.CodeTimeout, "slow", nil))
	m.RecordRunDuration(ctx, "run-1", time.Second)
}

func TestRecordRoleFailureIgnoresNilError(t *testing.T) {
	m, err := NewRunMetrics()
	if err != nil {
		t.Fatalf("NewRunMetrics failed: %v", err)
	}
	m.RecordRoleFailure(context.Background(), "writer", nil)
}
