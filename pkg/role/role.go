// Package role implements the agent role: an identity with a watch set,
// a dispatch table of actions, a private memory view, and the
// observe→think→act cycle it runs each round.
package role

import (
	"context"
	"log/slog"

	"github.com/ensembleai/ensemble/pkg/action"
	"github.com/ensembleai/ensemble/pkg/core"
	"github.com/ensembleai/ensemble/pkg/errors"
	"github.com/ensembleai/ensemble/pkg/memory"
)

const defaultObserveLimit = 10

// Role is an autonomous agent with identity, subscriptions, and actions.
// A role reads the shared store through per-round snapshots and never
// writes to it; publishing is the environment's job.
type Role struct {
	name    string
	profile string

	watch    core.WatchSet
	actions  []action.Action
	dispatch map[string]action.Action

	state core.RoleState
	seen  int64
	news  []core.Message
	todo  action.Action

	memview      []core.Message
	longterm     *memory.LongTerm
	recallK      int
	observeLimit int
	emitter      core.EventEmitter
}

// Option configures a Role.
type Option func(*Role)

// WithAction maps a watched cause-by tag to the action it triggers.
// The tag joins the role's watch set; the mapping is fixed from here on.
func WithAction(trigger string, act action.Action) Option {
	return func(r *Role) {
		r.watch[trigger] = struct{}{}
		r.actions = append(r.actions, act)
		r.dispatch[trigger] = act
	}
}

// WithLongTerm attaches the long-term memory layer; up to k recalled
// contents are merged into each action context.
func WithLongTerm(lt *memory.LongTerm, k int) Option {
	return func(r *Role) {
		r.longterm = lt
		r.recallK = k
	}
}

// WithObserveLimit caps how many new messages a single observe pulls.
func WithObserveLimit(n int) Option {
	return func(r *Role) { r.observeLimit = n }
}

// WithEmitter sets the semantic event sink.
func WithEmitter(emitter core.EventEmitter) Option {
	return func(r *Role) { r.emitter = emitter }
}

// New creates a role. At least one WithAction mapping is expected; a role
// with an empty watch set is permanently idle.
func New(name, profile string, opts ...Option) *Role {
	r := &Role{
		name:         name,
		profile:      profile,
		watch:        core.NewWatchSet(),
		dispatch:     make(map[string]action.Action),
		state:        core.StateIdle,
		observeLimit: defaultObserveLimit,
		emitter:      core.NoopEventEmitter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the role identity.
func (r *Role) Name() string { return r.name }

// Profile returns the role's descriptive profile.
func (r *Role) Profile() string { return r.profile }

// State returns the current cycle state.
func (r *Role) State() core.RoleState { return r.state }

// Watch returns the role's watch set.
func (r *Role) Watch() core.WatchSet { return r.watch }

// Memory returns the role's private view: every message it has received,
// in arrival order.
func (r *Role) Memory() []core.Message {
	return append([]core.Message(nil), r.memview...)
}

// HasNews reports whether the store holds unseen watched messages for
// this role, without advancing the seen cursor.
func (r *Role) HasNews(store *memory.Store) bool {
	return len(store.FindNews(r.name, r.watch, r.seen, 1)) > 0
}

// ResetForRound prepares the role for a new round. Failed roles stay
// failed; everyone else returns to idle.
func (r *Role) ResetForRound() {
	if r.state == core.StateFailed {
		return
	}
	r.state = core.StateIdle
	r.news = nil
	r.todo = nil
}

// Observe pulls unseen watched messages from the store and advances the
// seen cursor. An empty result leaves the role idle; that is the normal
// end state for a round, not an error.
func (r *Role) Observe(ctx context.Context, store *memory.Store) int {
	r.state = core.StateObserving
	r.emitter.Emit(ctx, core.NewEvent(core.EventRoleObserving, r.name, 0, nil))

	news := store.FindNews(r.name, r.watch, r.seen, r.observeLimit)
	if len(news) == 0 {
		r.state = core.StateIdle
		return 0
	}

	r.news = news
	r.memview = append(r.memview, news...)
	r.seen = news[len(news)-1].Timestamp
	return len(news)
}

// Think deterministically selects the next action from the most recent
// observed message's cause-by tag. Fails with NO_APPLICABLE_ACTION when
// nothing matches; the caller treats that as idle, not fatal.
func (r *Role) Think(ctx context.Context) error {
	r.state = core.StateThinking
	r.emitter.Emit(ctx, core.NewEvent(core.EventRoleThinking, r.name, 0, nil))

	latest := r.news[len(r.news)-1]
	act, ok := r.dispatch[latest.CauseBy]
	if !ok {
		r.state = core.StateIdle
		return errors.New(errors.CodeNoApplicableAction, "no action mapped for tag", nil).
			WithContext("role", r.name).
			WithContext("tag", latest.CauseBy)
	}
	r.todo = act
	return nil
}

// Act executes the selected action against the filtered memory context.
// On success the result is wrapped into a message addressed per the
// action's declared recipients; the environment appends it. On failure
// the role produced nothing this round: transient exhaustion leaves it
// idle for the next round, unrecoverable failure marks it failed.
func (r *Role) Act(ctx context.Context) (*core.Message, error) {
	r.state = core.StateActing
	r.emitter.Emit(ctx, core.NewEvent(core.EventRoleActing, r.name, 0, map[string]any{
		"action": r.todo.Name(),
	}))

	actx := action.Context{History: r.news}
	if r.longterm != nil && r.recallK > 0 {
		actx.Recall = r.longterm.Recall(ctx, actx.LatestContent(), r.recallK)
	}

	todo := r.todo
	out, err := todo.Run(ctx, actx)
	r.todo = nil
	r.news = nil
	if err != nil {
		if errors.IsTransient(err) || errors.CodeOf(err) == errors.CodeContextLost {
			r.state = core.StateIdle
		} else {
			r.state = core.StateFailed
			r.emitter.Emit(ctx, core.NewEvent(core.EventRoleFailed, r.name, 0, map[string]any{
				"error": err.Error(),
			}))
		}
		return nil, err
	}

	msg := core.NewMessage(out, r.name, todo.Name(), todo.Recipients()...)
	r.state = core.StateIdle
	r.emitter.Emit(ctx, core.NewEvent(core.EventActionCompleted, r.name, 0, map[string]any{
		"action": todo.Name(),
	}))
	return &msg, nil
}

// Cycle runs one observe→think→act pass against the store. Returns nil
// without error when the role has nothing to do this round; thinking is
// never skipped before acting.
func (r *Role) Cycle(ctx context.Context, store *memory.Store) (*core.Message, error) {
	if r.state == core.StateFailed {
		return nil, nil
	}
	if r.Observe(ctx, store) == 0 {
		r.emitter.Emit(ctx, core.NewEvent(core.EventRoleIdle, r.name, 0, nil))
		return nil, nil
	}
	if err := r.Think(ctx); err != nil {
		// Unmatched tags mean this round's news was not for us.
		if errors.CodeOf(err) == errors.CodeNoApplicableAction {
			slog.DebugContext(ctx, "role.idle.no_applicable_action",
				slog.String("role", r.name),
			)
			return nil, nil
		}
		return nil, err
	}
	return r.Act(ctx)
}
