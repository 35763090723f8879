package llm

import (
	"context"
	stderrors "errors"
	"sync"
)

// Step is a single scripted outcome: either Content is returned or Err
// fails the call.
type Step struct {
	Content string
	Err     error
}

// ScriptedProvider is a mock provider that plays back a pre-defined
// sequence of outcomes. Useful for exercising retry paths: script a few
// transient failures followed by a success.
type ScriptedProvider struct {
	mu    sync.Mutex
	steps []Step
	// CallCount tracks how many times Chat has been called.
	CallCount int
}

// NewScripted creates a provider returning the given contents in order.
func NewScripted(responses ...string) *ScriptedProvider {
	s := &ScriptedProvider{}
	for _, r := range responses {
		s.steps = append(s.steps, Step{Content: r})
	}
	return s
}

// NewScriptedSteps creates a provider playing back explicit steps.
func NewScriptedSteps(steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{steps: append([]Step(nil), steps...)}
}

// Chat pops the next scripted outcome.
func (s *ScriptedProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++

	if len(s.steps) == 0 {
		return nil, stderrors.New("scripted provider: no more responses available")
	}

	step := s.steps[0]
	s.steps = s.steps[1:]

	if step.Err != nil {
		return nil, step.Err
	}
	return &ChatResponse{
		Content: step.Content,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// AddStep appends an outcome to the script.
func (s *ScriptedProvider) AddStep(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
}

// Remaining returns how many scripted outcomes are left.
func (s *ScriptedProvider) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}
