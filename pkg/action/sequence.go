package action

import "context"

// Sequence composes actions: each step runs with the previous step's
// output as its seed, and the final step's output is the sequence result.
// Composition happens here at the action layer, not through role wiring.
type Sequence struct {
	name       string
	steps      []Action
	recipients []string
}

// NewSequence creates a composed action. The sequence result carries the
// sequence's own name as cause-by tag, not the last step's.
func NewSequence(name string, steps []Action, recipients ...string) *Sequence {
	return &Sequence{
		name:       name,
		steps:      append([]Action(nil), steps...),
		recipients: append([]string(nil), recipients...),
	}
}

// Name returns the sequence name.
func (s *Sequence) Name() string { return s.name }

// Recipients returns the declared recipients.
func (s *Sequence) Recipients() []string {
	return append([]string(nil), s.recipients...)
}

// Run executes the steps in order, threading each result into the next
// step's seed. A failing step fails the whole sequence; nothing partial
// escapes.
func (s *Sequence) Run(ctx context.Context, actx Context) (string, error) {
	var out string
	for _, step := range s.steps {
		stepCtx := actx
		if out != "" {
			stepCtx.Seed = out
		}
		result, err := step.Run(ctx, stepCtx)
		if err != nil {
			return "", err
		}
		out = result
	}
	return out, nil
}

var _ Action = (*Sequence)(nil)
