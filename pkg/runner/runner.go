// Package runner provides the top-level run loop: it drives an
// environment round by round until the run finishes and reports the
// outcome.
package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/ensembleai/ensemble/pkg/core"
	"github.com/ensembleai/ensemble/pkg/environment"
	"github.com/ensembleai/ensemble/pkg/errors"
	"github.com/ensembleai/ensemble/pkg/memory"
	"github.com/ensembleai/ensemble/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeDone means a role published the done sentinel.
	OutcomeDone Outcome = "done"
	// OutcomeQuiesced means no role had anything left to react to.
	OutcomeQuiesced Outcome = "quiesced"
	// OutcomeRoundLimit means the round cap stopped the run first.
	OutcomeRoundLimit Outcome = "round_limit"
)

// RoleStatus is the final per-role standing of a run.
type RoleStatus struct {
	State core.RoleState
	Err   error
}

// Report summarizes a finished run.
type Report struct {
	RunID   string
	Rounds  int
	Outcome Outcome
	History []core.Message
	Roles   map[string]RoleStatus
}

// Final returns the content of the last published message, or the empty
// string for a run that produced nothing.
func (r *Report) Final() string {
	if len(r.History) == 0 {
		return ""
	}
	return r.History[len(r.History)-1].Content
}

// Runner drives environments to completion.
type Runner struct {
	strict  bool
	archive *memory.SQLiteArchive
	metrics *telemetry.RunMetrics
	tracer  trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithStrictCompletion makes Run return ROUND_LIMIT as an error when the
// round cap stops a run before the done sentinel appears.
func WithStrictCompletion(strict bool) Option {
	return func(r *Runner) { r.strict = strict }
}

// WithArchive persists every finished run's history.
func WithArchive(archive *memory.SQLiteArchive) Option {
	return func(r *Runner) { r.archive = archive }
}

// WithMetrics records run durations.
func WithMetrics(metrics *telemetry.RunMetrics) Option {
	return func(r *Runner) { r.metrics = metrics }
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run seeds the environment with the user request and drives rounds until
// the run finishes or the context is cancelled. The report is returned
// even alongside a non-nil error so callers can inspect partial output.
func (r *Runner) Run(ctx context.Context, env *environment.Environment, request string) (*Report, error) {
	if r.tracer == nil {
		r.tracer = otel.Tracer("ensemble/runner")
	}
	ctx, runID := core.EnsureRunID(ctx)
	log := slog.Default()
	log.Info("runner.run.start",
		slog.String("run_id", runID),
		slog.Int("roles", len(env.Roles())),
	)
	ctx, span := r.tracer.Start(ctx, "Runner.Run", trace.WithAttributes(
		attribute.String(telemetry.AttrRunID, runID),
	))
	defer span.End()
	started := time.Now()
	defer func() { r.metrics.RecordRunDuration(ctx, runID, time.Since(started)) }()

	if request != "" {
		if err := env.Publish(core.UserRequest(request)); err != nil {
			return nil, err
		}
	}

	var runErr error
	for !env.IsFinished() {
		if err := ctx.Err(); err != nil {
			runErr = errors.New(errors.CodeContextLost, "run cancelled", err).
				WithContext("run_id", runID)
			break
		}
		if err := env.RunRound(ctx); err != nil {
			runErr = err
			break
		}
	}

	report := r.report(runID, env)
	if runErr == nil && r.strict && report.Outcome == OutcomeRoundLimit {
		runErr = errors.New(errors.CodeRoundLimit, "round limit reached before completion", nil).
			WithContext("run_id", runID).
			WithContext("rounds", report.Rounds)
	}

	if r.archive != nil {
		if err := r.archive.SaveRun(ctx, runID, report.History); err != nil {
			log.Warn("runner.archive.error",
				slog.String("run_id", runID),
				slog.String("error", err.Error()),
			)
		}
	}

	traceID, spanID := traceIDs(span)
	if runErr != nil {
		log.Error("runner.run.error",
			slog.String("run_id", runID),
			slog.String("trace_id", traceID),
			slog.String("span_id", spanID),
			slog.String("error", runErr.Error()),
		)
		return report, runErr
	}
	log.Info("runner.run.complete",
		slog.String("run_id", runID),
		slog.String("trace_id", traceID),
		slog.String("span_id", spanID),
		slog.Int("rounds", report.Rounds),
		slog.String("outcome", string(report.Outcome)),
	)
	return report, nil
}

func (r *Runner) report(runID string, env *environment.Environment) *Report {
	// A run that stops with work still pending hit the round cap;
	// stopping exactly at the cap with nothing pending is a quiesce.
	outcome := OutcomeQuiesced
	if env.Done() {
		outcome = OutcomeDone
	} else if hasPending(env) {
		outcome = OutcomeRoundLimit
	}

	statuses := make(map[string]RoleStatus, len(env.Roles()))
	failures := env.Failures()
	for _, role := range env.Roles() {
		statuses[role.Name()] = RoleStatus{
			State: role.State(),
			Err:   failures[role.Name()],
		}
	}

	return &Report{
		RunID:   runID,
		Rounds:  env.Round(),
		Outcome: outcome,
		History: env.History(),
		Roles:   statuses,
	}
}

func hasPending(env *environment.Environment) bool {
	for _, role := range env.Roles() {
		if role.State() == core.StateFailed {
			continue
		}
		if role.HasNews(env.Store()) {
			return true
		}
	}
	return false
}

func traceIDs(span trace.Span) (string, string) {
	sc := span.SpanContext()
	return sc.TraceID().String(), sc.SpanID().String()
}
