// Copyright 2026 © The Ensemble Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"fmt"
	"strings"

	"github.com/ensembleai/ensemble/pkg/errors"
	"github.com/ensembleai/ensemble/pkg/runner"
)

// OutcomeIs expects the run to finish with the given outcome.
func OutcomeIs(want runner.Outcome) Expectation {
	return expectation(fmt.Sprintf("outcome is %s", want), func(r *ScenarioResult) error {
		if err := requireReport(r); err != nil {
			return err
		}
		if r.Report.Outcome != want {
			return fmt.Errorf("got %s", r.Report.Outcome)
		}
		return nil
	})
}

// Succeeds expects the run to finish without error.
func Succeeds() Expectation {
	return expectation("run succeeds", func(r *ScenarioResult) error {
		return r.Err
	})
}

// FailsWithCode expects the run to fail with the given error code.
func FailsWithCode(code errors.ErrorCode) Expectation {
	return expectation(fmt.Sprintf("run fails with %s", code), func(r *ScenarioResult) error {
		if got := errors.CodeOf(r.Err); got != code {
			return fmt.Errorf("got error %v", r.Err)
		}
		return nil
	})
}

// FinalContains expects the last published message to contain the substring.
func FinalContains(substr string) Expectation {
	return expectation(fmt.Sprintf("final output contains %q", substr), func(r *ScenarioResult) error {
		if err := requireReport(r); err != nil {
			return err
		}
		if !strings.Contains(r.Report.Final(), substr) {
			return fmt.Errorf("final output is %q", r.Report.Final())
		}
		return nil
	})
}

// HistoryLen expects the full history to hold exactly n messages.
func HistoryLen(n int) Expectation {
	return expectation(fmt.Sprintf("history holds %d messages", n), func(r *ScenarioResult) error {
		if err := requireReport(r); err != nil {
			return err
		}
		if len(r.Report.History) != n {
			return fmt.Errorf("got %d", len(r.Report.History))
		}
		return nil
	})
}

// MessageCausedBy expects some published message to carry the cause-by tag.
func MessageCausedBy(tag string) Expectation {
	return expectation(fmt.Sprintf("a message caused by %s", tag), func(r *ScenarioResult) error {
		if err := requireReport(r); err != nil {
			return err
		}
		for _, msg := range r.Report.History {
			if msg.CauseBy == tag {
				return nil
			}
		}
		return fmt.Errorf("no message with that tag in %d messages", len(r.Report.History))
	})
}

// RoleClean expects the role to finish without a recorded failure.
func RoleClean(name string) Expectation {
	return expectation(fmt.Sprintf("role %s ends clean", name), func(r *ScenarioResult) error {
		if err := requireReport(r); err != nil {
			return err
		}
		status, ok := r.Report.Roles[name]
		if !ok {
			return fmt.Errorf("role not in report")
		}
		return status.Err
	})
}

// RoleFailedWith expects the role's recorded failure to carry the code.
func RoleFailedWith(name string, code errors.ErrorCode) Expectation {
	return expectation(fmt.Sprintf("role %s failed with %s", name, code), func(r *ScenarioResult) error {
		if err := requireReport(r); err != nil {
			return err
		}
		status, ok := r.Report.Roles[name]
		if !ok {
			return fmt.Errorf("role not in report")
		}
		if got := errors.CodeOf(status.Err); got != code {
			return fmt.Errorf("got %v", status.Err)
		}
		return nil
	})
}

// RoundsAtMost expects the run to take no more than n rounds.
func RoundsAtMost(n int) Expectation {
	return expectation(fmt.Sprintf("at most %d rounds", n), func(r *ScenarioResult) error {
		if err := requireReport(r); err != nil {
			return err
		}
		if r.Report.Rounds > n {
			return fmt.Errorf("took %d", r.Report.Rounds)
		}
		return nil
	})
}
