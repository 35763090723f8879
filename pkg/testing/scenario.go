// Copyright 2026 © The Ensemble Authors
// SPDX-License-Identifier: Apache-2.0

// Package testing provides utilities for testing multi-agent teams.
//
// This package includes:
//   - Scenario definitions for declarative team testing
//   - Assertion helpers over run reports
//   - Event collectors for verifying role behavior
//
// Example usage:
//
//	scenario := testing.NewScenario("haiku pipeline").
//	    WithRequest("write a haiku").
//	    WithRole(writer).
//	    WithRole(reviewer).
//	    Expect(testing.OutcomeIs(runner.OutcomeQuiesced)).
//	    Expect(testing.FinalContains("ship it"))
//
//	scenario.Run(t).Assert(t)
package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ensembleai/ensemble/pkg/core"
	"github.com/ensembleai/ensemble/pkg/environment"
	"github.com/ensembleai/ensemble/pkg/role"
	"github.com/ensembleai/ensemble/pkg/runner"
)

// Scenario defines a declarative test for a team run.
type Scenario struct {
	name         string
	request      string
	timeout      time.Duration
	maxRounds    int
	parallel     bool
	strict       bool
	roles        []*role.Role
	expectations []Expectation
}

// Expectation defines a condition to verify after running a scenario.
type Expectation interface {
	// Check verifies the expectation against the result.
	Check(result *ScenarioResult) error
	// Description returns a human-readable description of the expectation.
	Description() string
}

// ScenarioResult contains the outcome of running a scenario.
type ScenarioResult struct {
	Report   *runner.Report
	Err      error
	Events   []core.Event
	Duration time.Duration

	name         string
	expectations []Expectation
}

// NewScenario creates a new test scenario with the given name.
func NewScenario(name string) *Scenario {
	return &Scenario{
		name:      name,
		timeout:   30 * time.Second,
		maxRounds: 10,
	}
}

// WithRequest sets the seed user request.
func (s *Scenario) WithRequest(request string) *Scenario {
	s.request = request
	return s
}

// WithRole adds a role; registration order is declaration order.
func (s *Scenario) WithRole(r *role.Role) *Scenario {
	s.roles = append(s.roles, r)
	return s
}

// WithMaxRounds caps the run.
func (s *Scenario) WithMaxRounds(n int) *Scenario {
	s.maxRounds = n
	return s
}

// WithParallel runs role cycles concurrently within each round.
func (s *Scenario) WithParallel() *Scenario {
	s.parallel = true
	return s
}

// WithStrictCompletion treats a round-limit stop as a failure.
func (s *Scenario) WithStrictCompletion() *Scenario {
	s.strict = true
	return s
}

// WithTimeout sets the overall scenario timeout.
func (s *Scenario) WithTimeout(d time.Duration) *Scenario {
	s.timeout = d
	return s
}

// Expect adds an expectation to verify after the run.
func (s *Scenario) Expect(e Expectation) *Scenario {
	s.expectations = append(s.expectations, e)
	return s
}

// Run executes the scenario and returns the result for assertion.
func (s *Scenario) Run(t *testing.T) *ScenarioResult {
	t.Helper()

	collector := NewEventCollector()
	env := environment.New(
		environment.WithMaxRounds(s.maxRounds),
		environment.WithParallel(s.parallel),
		environment.WithEmitter(collector),
	)
	for _, r := range s.roles {
		if err := env.Register(r); err != nil {
			t.Fatalf("scenario %q: register %s: %v", s.name, r.Name(), err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	report, err := runner.New(runner.WithStrictCompletion(s.strict)).Run(ctx, env, s.request)
	return &ScenarioResult{
		Report:       report,
		Err:          err,
		Events:       collector.Events(),
		Duration:     time.Since(started),
		name:         s.name,
		expectations: s.expectations,
	}
}

// Assert checks every expectation against the result.
func (r *ScenarioResult) Assert(t *testing.T) {
	t.Helper()
	for _, e := range r.expectations {
		if err := e.Check(r); err != nil {
			t.Errorf("scenario %q: %s: %v", r.name, e.Description(), err)
		}
	}
}

// EventCollector records emitted events for inspection.
type EventCollector struct {
	mu     sync.Mutex
	events []core.Event
}

// NewEventCollector creates an empty collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{}
}

// Emit implements core.EventEmitter.
func (c *EventCollector) Emit(_ context.Context, event core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of the recorded events.
func (c *EventCollector) Events() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Event(nil), c.events...)
}

// CountByType returns how many events of the given type were recorded.
func (c *EventCollector) CountByType(eventType core.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

var _ core.EventEmitter = (*EventCollector)(nil)

func expectation(desc string, check func(*ScenarioResult) error) Expectation {
	return &funcExpectation{desc: desc, check: check}
}

type funcExpectation struct {
	desc  string
	check func(*ScenarioResult) error
}

func (e *funcExpectation) Check(r *ScenarioResult) error { return e.check(r) }
func (e *funcExpectation) Description() string           { return e.desc }

func requireReport(r *ScenarioResult) error {
	if r.Report == nil {
		return fmt.Errorf("run produced no report (err: %v)", r.Err)
	}
	return nil
}
