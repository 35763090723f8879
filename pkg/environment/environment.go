// Package environment implements the message bus and shared state: the
// canonical memory store, the registered roles, and the round driver.
package environment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ensembleai/ensemble/pkg/core"
	"github.com/ensembleai/ensemble/pkg/errors"
	"github.com/ensembleai/ensemble/pkg/memory"
	"github.com/ensembleai/ensemble/pkg/role"
	"github.com/ensembleai/ensemble/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxRounds = 20

// Environment owns the canonical memory store and the role roster, and
// drives one round at a time. It is the single writer of the store: role
// cycles hand their results back and the environment appends them in
// registration order with monotonically increasing timestamps, so output
// is reproducible regardless of the intra-round execution policy.
type Environment struct {
	store    *memory.Store
	longterm *memory.LongTerm

	roles  []*role.Role
	byName map[string]*role.Role

	round        int
	clock        int64
	doneSeen     bool
	parallel     bool
	roundTimeout time.Duration
	maxRounds    int

	emitter core.EventEmitter
	tracer  trace.Tracer
	metrics *telemetry.RunMetrics

	mu       sync.Mutex
	failures map[string]error
}

// Option configures an Environment.
type Option func(*Environment)

// WithParallel executes role cycles within a round concurrently.
// Append order stays deterministic either way.
func WithParallel(parallel bool) Option {
	return func(e *Environment) { e.parallel = parallel }
}

// WithRoundTimeout cancels all in-flight role cycles when a round runs
// too long; affected roles publish nothing that round.
func WithRoundTimeout(d time.Duration) Option {
	return func(e *Environment) { e.roundTimeout = d }
}

// WithMaxRounds caps how many rounds the run may take.
func WithMaxRounds(n int) Option {
	return func(e *Environment) { e.maxRounds = n }
}

// WithLongTerm indexes every published message into the long-term layer.
func WithLongTerm(lt *memory.LongTerm) Option {
	return func(e *Environment) { e.longterm = lt }
}

// WithEmitter sets the semantic event sink.
func WithEmitter(emitter core.EventEmitter) Option {
	return func(e *Environment) { e.emitter = emitter }
}

// WithMetrics records publish, round, and failure counters.
func WithMetrics(metrics *telemetry.RunMetrics) Option {
	return func(e *Environment) { e.metrics = metrics }
}

// New creates an environment with an empty store.
func New(opts ...Option) *Environment {
	e := &Environment{
		store:     memory.NewStore(),
		byName:    make(map[string]*role.Role),
		maxRounds: defaultMaxRounds,
		emitter:   core.NoopEventEmitter{},
		failures:  make(map[string]error),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a role to the roster. Names are unique; registration
// order fixes the timestamp assignment order for the whole run.
func (e *Environment) Register(r *role.Role) error {
	if _, dup := e.byName[r.Name()]; dup {
		return errors.New(errors.CodeInvalidRequest, "role name already registered", nil).
			WithContext("role", r.Name())
	}
	e.roles = append(e.roles, r)
	e.byName[r.Name()] = r
	return nil
}

// Publish appends a message to the store with the next logical timestamp.
// Used to seed the run; during rounds the environment publishes for the
// roles itself.
func (e *Environment) Publish(msg core.Message) error {
	return e.publish(context.Background(), msg)
}

func (e *Environment) publish(ctx context.Context, msg core.Message) error {
	e.clock++
	msg.Timestamp = e.clock
	if err := e.store.Add(msg); err != nil {
		return err
	}
	if msg.IsDone() {
		e.doneSeen = true
	}
	if e.longterm != nil {
		e.longterm.Index(ctx, msg)
	}
	e.metrics.RecordPublish(ctx, msg.Role, msg.CauseBy)
	return nil
}

// Store returns the canonical memory store.
func (e *Environment) Store() *memory.Store { return e.store }

// History returns the full message history in emission order.
func (e *Environment) History() []core.Message { return e.store.Snapshot() }

// Round returns the number of completed rounds.
func (e *Environment) Round() int { return e.round }

// Done reports whether the done sentinel has been published.
func (e *Environment) Done() bool { return e.doneSeen }

// Roles returns the roster in registration order.
func (e *Environment) Roles() []*role.Role {
	return append([]*role.Role(nil), e.roles...)
}

// Failures returns the last failure recorded per role, keyed by name.
func (e *Environment) Failures() map[string]error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]error, len(e.failures))
	for k, v := range e.failures {
		out[k] = v
	}
	return out
}

// eligible returns the non-failed roles with unseen watched messages, in
// registration order.
func (e *Environment) eligible() []*role.Role {
	var out []*role.Role
	for _, r := range e.roles {
		if r.State() == core.StateFailed {
			continue
		}
		if r.HasNews(e.store) {
			out = append(out, r)
		}
	}
	return out
}

// IsFinished reports whether the run is over: the done sentinel was
// published, the round cap was hit, or no role has anything to react to.
func (e *Environment) IsFinished() bool {
	if e.doneSeen {
		return true
	}
	if e.maxRounds > 0 && e.round >= e.maxRounds {
		return true
	}
	return len(e.eligible()) == 0
}

// RunRound executes one round: every eligible role runs its cycle against
// the round-start snapshot, then the environment appends all results in
// registration order. Action failures degrade to "that role produced
// nothing"; only store corruption aborts the run.
func (e *Environment) RunRound(ctx context.Context) error {
	if e.tracer == nil {
		e.tracer = otel.Tracer("ensemble/environment")
	}

	e.round++
	for _, r := range e.roles {
		r.ResetForRound()
	}

	ctx, span := e.tracer.Start(ctx, "Environment.RunRound", trace.WithAttributes(
		attribute.Int("round", e.round),
	))
	defer span.End()

	e.emitter.Emit(ctx, core.NewEvent(core.EventRoundStarted, "", e.round, nil))

	eligible := e.eligible()
	if len(eligible) == 0 {
		e.emitter.Emit(ctx, core.NewEvent(core.EventRoundCompleted, "", e.round, map[string]any{
			"published": 0,
		}))
		return nil
	}

	cycleCtx := ctx
	cancel := context.CancelFunc(func() {})
	if e.roundTimeout > 0 {
		cycleCtx, cancel = context.WithTimeout(ctx, e.roundTimeout)
	}
	defer cancel()

	// Per-role result slots keep the append step independent of
	// completion order.
	results := make([]*core.Message, len(eligible))
	cycleErrs := make([]error, len(eligible))

	if e.parallel {
		var wg sync.WaitGroup
		for i, r := range eligible {
			wg.Add(1)
			go func(i int, r *role.Role) {
				defer wg.Done()
				results[i], cycleErrs[i] = r.Cycle(cycleCtx, e.store)
			}(i, r)
		}
		wg.Wait()
	} else {
		for i, r := range eligible {
			results[i], cycleErrs[i] = r.Cycle(cycleCtx, e.store)
		}
	}

	published := 0
	for i, r := range eligible {
		if err := cycleErrs[i]; err != nil {
			e.mu.Lock()
			e.failures[r.Name()] = err
			e.mu.Unlock()
			slog.WarnContext(ctx, "round.role_failed",
				slog.String("role", r.Name()),
				slog.Int("round", e.round),
				slog.String("error", err.Error()),
			)
			e.metrics.RecordRoleFailure(ctx, r.Name(), err)
			continue
		}
		if results[i] == nil {
			continue
		}
		if err := e.publish(ctx, *results[i]); err != nil {
			// Duplicate id or a stalled clock breaks the total order
			// every consumer depends on.
			return err
		}
		published++
	}

	e.emitter.Emit(ctx, core.NewEvent(core.EventRoundCompleted, "", e.round, map[string]any{
		"published": published,
	}))
	e.metrics.RecordRound(ctx)
	return nil
}
