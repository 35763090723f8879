package role

import (
	"context"
	"testing"
	"time"

	"github.com/ensembleai/ensemble/pkg/action"
	"github.com/ensembleai/ensemble/pkg/core"
	"github.com/ensembleai/ensemble/pkg/errors"
	"github.com/ensembleai/ensemble/pkg/llm"
	"github.com/ensembleai/ensemble/pkg/memory"
	"github.com/ensembleai/ensemble/pkg/resilience"
)

func seedStore(t *testing.T, msgs ...core.Message) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for i, msg := range msgs {
		msg.Timestamp = int64(i + 1)
		if err := store.Add(msg); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	return store
}

func draftAction(response string) action.Action {
	return action.NewCompletion("Draft", &llm.MockProvider{Response: response}, "test-model")
}

func TestCycleProducesMessage(t *testing.T) {
	store := seedStore(t, core.UserRequest("write a haiku"))
	writer := New("writer", "a poet",
		WithAction(core.TagUserRequest, draftAction("five seven five")),
	)

	msg, err := writer.Cycle(context.Background(), store)
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if msg == nil {
		t.Fatal("expected a message")
	}
	if msg.CauseBy != "Draft" {
		t.Errorf("expected cause_by Draft, got %s", msg.CauseBy)
	}
	if msg.Role != "writer" {
		t.Errorf("expected sender writer, got %s", msg.Role)
	}
	if writer.State() != core.StateIdle {
		t.Errorf("expected idle after act, got %s", writer.State())
	}
}

func TestObserveEmptyStaysIdle(t *testing.T) {
	store := seedStore(t)
	writer := New("writer", "a poet",
		WithAction(core.TagUserRequest, draftAction("x")),
	)

	msg, err := writer.Cycle(context.Background(), store)
	if err != nil {
		t.Fatalf("idle round must not error: %v", err)
	}
	if msg != nil {
		t.Error("idle round must not produce a message")
	}
	if writer.State() != core.StateIdle {
		t.Errorf("expected idle, got %s", writer.State())
	}
}

func TestSubscriptionCorrectness(t *testing.T) {
	// A role watching only Draft must not wake on Review messages.
	store := seedStore(t, core.NewMessage("a review", "reviewer", "Review"))
	watcher := New("editor", "an editor",
		WithAction("Draft", draftAction("x")),
	)

	if n := watcher.Observe(context.Background(), store); n != 0 {
		t.Errorf("expected no news for unwatched tag, got %d", n)
	}
	if watcher.State() != core.StateIdle {
		t.Errorf("role must stay idle, got %s", watcher.State())
	}
}

func TestSeenCursorPreventsReprocessing(t *testing.T) {
	store := seedStore(t, core.UserRequest("write"))
	writer := New("writer", "a poet",
		WithAction(core.TagUserRequest, draftAction("draft")),
	)

	if msg, _ := writer.Cycle(context.Background(), store); msg == nil {
		t.Fatal("expected first cycle to produce")
	}
	writer.ResetForRound()
	msg, err := writer.Cycle(context.Background(), store)
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if msg != nil {
		t.Error("seen message must not be processed twice")
	}
}

func TestThinkNoApplicableActionIsIdle(t *testing.T) {
	// Watched tag with no dispatch entry can only happen through direct
	// state manipulation in practice, so drive Observe/Think manually.
	store := seedStore(t, core.NewMessage("x", "someone", "Draft"))
	r := New("editor", "an editor",
		WithAction("Draft", draftAction("y")),
	)
	delete(r.dispatch, "Draft")

	if n := r.Observe(context.Background(), store); n != 1 {
		t.Fatalf("expected 1 observed, got %d", n)
	}
	err := r.Think(context.Background())
	if errors.CodeOf(err) != errors.CodeNoApplicableAction {
		t.Fatalf("expected NO_APPLICABLE_ACTION, got %v", err)
	}
	if r.State() != core.StateIdle {
		t.Errorf("expected idle after unmatched think, got %s", r.State())
	}
}

func TestActTransientExhaustionLeavesIdle(t *testing.T) {
	provider := llm.NewResilient(
		&llm.FailingMockProvider{Err: errors.New(errors.CodeRateLimit, "limited", nil)},
		resilience.DefaultRetryConfig().WithMaxAttempts(2).WithInitialDelay(time.Millisecond),
	)
	store := seedStore(t, core.UserRequest("write"))
	writer := New("writer", "a poet",
		WithAction(core.TagUserRequest, action.NewCompletion("Draft", provider, "m")),
	)

	msg, err := writer.Cycle(context.Background(), store)
	if err == nil {
		t.Fatal("expected exhausted transient error")
	}
	if msg != nil {
		t.Error("failed act must not produce a message")
	}
	if writer.State() != core.StateIdle {
		t.Errorf("transient failure leaves role idle, got %s", writer.State())
	}
}

func TestActPermanentFailureMarksFailed(t *testing.T) {
	provider := &llm.FailingMockProvider{Err: errors.New(errors.CodeUnauthorized, "bad key", nil)}
	store := seedStore(t, core.UserRequest("write"))
	writer := New("writer", "a poet",
		WithAction(core.TagUserRequest, action.NewCompletion("Draft", provider, "m")),
	)

	_, err := writer.Cycle(context.Background(), store)
	if err == nil {
		t.Fatal("expected permanent error")
	}
	if writer.State() != core.StateFailed {
		t.Errorf("permanent failure marks role failed, got %s", writer.State())
	}

	// Failed roles sit out subsequent rounds.
	writer.ResetForRound()
	if writer.State() != core.StateFailed {
		t.Errorf("reset must not clear failed state, got %s", writer.State())
	}
	msg, err := writer.Cycle(context.Background(), store)
	if msg != nil || err != nil {
		t.Errorf("failed role must be inert, got msg=%v err=%v", msg, err)
	}
}

func TestMemoryViewAccumulates(t *testing.T) {
	store := seedStore(t,
		core.UserRequest("write"),
		core.NewMessage("unrelated", "other", "Gossip"),
	)
	writer := New("writer", "a poet",
		WithAction(core.TagUserRequest, draftAction("draft")),
	)

	if _, err := writer.Cycle(context.Background(), store); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	view := writer.Memory()
	if len(view) != 1 {
		t.Fatalf("expected private view of 1 received message, got %d", len(view))
	}
	if view[0].CauseBy != core.TagUserRequest {
		t.Errorf("unexpected message in view: %+v", view[0])
	}
}

func TestRecipientsFlowIntoMessage(t *testing.T) {
	store := seedStore(t, core.UserRequest("write"))
	act := action.NewCompletion("Draft", &llm.MockProvider{Response: "d"}, "m",
		action.WithRecipients("reviewer"))
	writer := New("writer", "a poet", WithAction(core.TagUserRequest, act))

	msg, err := writer.Cycle(context.Background(), store)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(msg.SentTo) != 1 || msg.SentTo[0] != "reviewer" {
		t.Errorf("expected declared recipient, got %v", msg.SentTo)
	}
}
