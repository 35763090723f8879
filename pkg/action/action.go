// Package action defines the unit of reasoning and execution a role
// performs each round. Actions call external completion or tool
// interfaces behind an injected bounded-retry policy; only an action's
// final return value is ever turned into a message.
package action

import (
	"context"
	"strings"

	"github.com/ensembleai/ensemble/pkg/core"
)

// Context is the filtered memory slice an action runs against: the recent
// watched messages, optional long-term recall results, and the output of a
// preceding action when composed in a sequence.
type Context struct {
	History []core.Message
	Recall  []string
	Seed    string
}

// LatestContent returns the content of the most recent history message,
// or the seed when the history is empty.
func (c Context) LatestContent() string {
	if len(c.History) == 0 {
		return c.Seed
	}
	return c.History[len(c.History)-1].Content
}

// Render flattens the context into a prompt body.
func (c Context) Render() string {
	var b strings.Builder
	if len(c.Recall) > 0 {
		b.WriteString("Relevant context:\n")
		for _, r := range c.Recall {
			b.WriteString("- ")
			b.WriteString(r)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	for _, msg := range c.History {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteByte('\n')
	}
	if c.Seed != "" {
		b.WriteString(c.Seed)
		b.WriteByte('\n')
	}
	return b.String()
}

// Action is a named, stateless-between-invocations unit of work.
// Run returns the result payload or a classified failure; retry policy is
// applied inside Run, so a returned error means the policy is exhausted.
type Action interface {
	Name() string
	// Recipients declares who receives the resulting message. Empty
	// means broadcast.
	Recipients() []string
	Run(ctx context.Context, actx Context) (string, error)
}
