// SPDX-License-Identifier: Apache-2.0
// Package telemetry provides observability for multi-agent runs.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ensembleai/ensemble/pkg/errors"
)

// RunMetrics tracks round throughput, retries, and failure patterns for
// production monitoring.
type RunMetrics struct {
	messagesPublished metric.Int64Counter
	roundsCompleted   metric.Int64Counter
	actionRetries     metric.Int64Counter
	roleFailures      metric.Int64Counter
	runDuration       metric.Float64Histogram
}

// NewRunMetrics creates a run metrics tracker with OTEL meters.
func NewRunMetrics() (*RunMetrics, error) {
	meter := otel.Meter("ensemble/run")

	messagesPublished, err := meter.Int64Counter(
		"ensemble.messages.published",
		metric.WithDescription("Messages appended to the store, by role and action"),
	)
	if err != nil {
		return nil, err
	}

	roundsCompleted, err := meter.Int64Counter(
		"ensemble.rounds.completed",
		metric.WithDescription("Completed rounds"),
	)
	if err != nil {
		return nil, err
	}

	actionRetries, err := meter.Int64Counter(
		"ensemble.actions.retries",
		metric.WithDescription("Action attempts retried after a transient failure"),
	)
	if err != nil {
		return nil, err
	}

	roleFailures, err := meter.Int64Counter(
		"ensemble.roles.failures",
		metric.WithDescription("Role cycle failures by error code"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"ensemble.run.duration_seconds",
		metric.WithDescription("End-to-end run duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		messagesPublished: messagesPublished,
		roundsCompleted:   roundsCompleted,
		actionRetries:     actionRetries,
		roleFailures:      roleFailures,
		runDuration:       runDuration,
	}, nil
}

// RecordPublish counts a message appended to the store.
func (m *RunMetrics) RecordPublish(ctx context.Context, role, causeBy string) {
	if m == nil {
		return
	}
	m.messagesPublished.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrRoleName, role),
		attribute.String(AttrActionName, causeBy),
	))
}

// RecordRound counts a completed round.
func (m *RunMetrics) RecordRound(ctx context.Context) {
	if m == nil {
		return
	}
	m.roundsCompleted.Add(ctx, 1)
}

// RecordRetry counts a retried action attempt.
func (m *RunMetrics) RecordRetry(ctx context.Context, role, action string) {
	if m == nil {
		return
	}
	m.actionRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrRoleName, role),
		attribute.String(AttrActionName, action),
	))
}

// RecordRoleFailure counts a role cycle failure by error code.
func (m *RunMetrics) RecordRoleFailure(ctx context.Context, role string, err error) {
	if m == nil || err == nil {
		return
	}
	m.roleFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrRoleName, role),
		attribute.String(AttrErrorCode, string(errors.CodeOf(err))),
	))
}

// RecordRunDuration records how long a finished run took.
func (m *RunMetrics) RecordRunDuration(ctx context.Context, runID string, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrRunID, runID),
	))
}
