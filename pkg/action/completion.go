package action

import (
	"context"

	"github.com/ensembleai/ensemble/pkg/llm"
)

// CompletionAction produces its result with a single completion call.
// The provider passed in is expected to already carry the retry policy
// (see llm.NewResilient); the action itself never reads process-wide
// state.
type CompletionAction struct {
	name        string
	provider    llm.Provider
	model       string
	system      string
	temperature float64
	maxTokens   int
	recipients  []string
}

// CompletionOption configures a CompletionAction.
type CompletionOption func(*CompletionAction)

// WithSystemPrompt sets the system preamble sent before the context.
func WithSystemPrompt(system string) CompletionOption {
	return func(a *CompletionAction) { a.system = system }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CompletionOption {
	return func(a *CompletionAction) { a.temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) CompletionOption {
	return func(a *CompletionAction) { a.maxTokens = n }
}

// WithRecipients declares the recipients of the resulting message.
func WithRecipients(roles ...string) CompletionOption {
	return func(a *CompletionAction) { a.recipients = append([]string(nil), roles...) }
}

// NewCompletion creates a completion-backed action.
func NewCompletion(name string, provider llm.Provider, model string, opts ...CompletionOption) *CompletionAction {
	a := &CompletionAction{
		name:     name,
		provider: provider,
		model:    model,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the action name, used as the cause-by tag of its results.
func (a *CompletionAction) Name() string { return a.name }

// Recipients returns the declared recipients.
func (a *CompletionAction) Recipients() []string {
	return append([]string(nil), a.recipients...)
}

// Run assembles the prompt from the context and calls the provider once.
// The provider's retry policy has already run when an error comes back.
func (a *CompletionAction) Run(ctx context.Context, actx Context) (string, error) {
	messages := make([]llm.Message, 0, 2)
	if a.system != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.system})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: actx.Render()})

	resp, err := a.provider.Chat(ctx, llm.ChatRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

var _ Action = (*CompletionAction)(nil)
