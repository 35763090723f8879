package testing

import (
	"testing"
	"time"

	"github.com/ensembleai/ensemble/pkg/action"
	"github.com/ensembleai/ensemble/pkg/core"
	"github.com/ensembleai/ensemble/pkg/errors"
	"github.com/ensembleai/ensemble/pkg/llm"
	"github.com/ensembleai/ensemble/pkg/resilience"
	"github.com/ensembleai/ensemble/pkg/role"
	"github.com/ensembleai/ensemble/pkg/runner"
)

func completion(name, response string) action.Action {
	return action.NewCompletion(name, &llm.MockProvider{Response: response}, "test-model")
}

func TestScenarioPipeline(t *testing.T) {
	writer := role.New("writer", "a poet",
		role.WithAction(core.TagUserRequest, completion("Draft", "five seven five")),
	)
	reviewer := role.New("reviewer", "an editor",
		role.WithAction("Draft", completion("Review", "ship it")),
	)

	NewScenario("haiku pipeline").
		WithRequest("write a haiku").
		WithRole(writer).
		WithRole(reviewer).
		Expect(Succeeds()).
		Expect(OutcomeIs(runner.OutcomeQuiesced)).
		Expect(HistoryLen(3)).
		Expect(FinalContains("ship it")).
		Expect(MessageCausedBy("Draft")).
		Expect(RoleClean("writer")).
		Expect(RoleClean("reviewer")).
		Expect(RoundsAtMost(2)).
		Run(t).
		Assert(t)
}

func TestScenarioRecordsFailures(t *testing.T) {
	flaky := role.New("flaky", "",
		role.WithAction(core.TagUserRequest, action.NewCompletion("Draft",
			llm.NewResilient(
				&llm.FailingMockProvider{Err: errors.New(errors.CodeTimeout, "slow", nil)},
				resilience.DefaultRetryConfig().WithMaxAttempts(2).WithInitialDelay(time.Millisecond),
			), "m")),
	)
	steady := role.New("steady", "",
		role.WithAction(core.TagUserRequest, completion("Draft", "a draft")),
	)

	NewScenario("partial failure").
		WithRequest("go").
		WithRole(flaky).
		WithRole(steady).
		Expect(Succeeds()).
		Expect(HistoryLen(2)).
		Expect(RoleFailedWith("flaky", errors.CodeTimeout)).
		Expect(RoleClean("steady")).
		Run(t).
		Assert(t)
}

func TestScenarioStrictRoundLimit(t *testing.T) {
	a := role.New("a", "",
		role.WithAction(core.TagUserRequest, completion("Ping", "ping")),
		role.WithAction("Pong", completion("Ping", "ping")),
	)
	b := role.New("b", "",
		role.WithAction("Ping", completion("Pong", "pong")),
	)

	NewScenario("ping pong").
		WithRequest("start").
		WithRole(a).
		WithRole(b).
		WithMaxRounds(1).
		WithStrictCompletion().
		Expect(FailsWithCode(errors.CodeRoundLimit)).
		Expect(OutcomeIs(runner.OutcomeRoundLimit)).
		Run(t).
		Assert(t)
}

func TestEventCollector(t *testing.T) {
	writer := role.New("writer", "",
		role.WithAction(core.TagUserRequest, completion("Draft", "x")),
	)

	result := NewScenario("events").
		WithRequest("go").
		WithRole(writer).
		Run(t)
	result.Assert(t)

	if len(result.Events) == 0 {
		t.Fatal("expected recorded events")
	}
	collector := NewEventCollector()
	for _, e := range result.Events {
		collector.Emit(t.Context(), e)
	}
	if collector.CountByType(core.EventRoundStarted) == 0 {
		t.Error("expected round.started events")
	}
}
