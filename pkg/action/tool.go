package action

import (
	"context"

	"github.com/ensembleai/ensemble/pkg/resilience"
	"github.com/ensembleai/ensemble/pkg/tool"
)

// ToolAction produces its result by invoking a named tool. The injected
// retry policy wraps the invocation; only classified-transient tool
// failures are retried.
type ToolAction struct {
	name       string
	invoker    tool.Invoker
	toolName   string
	buildArgs  func(Context) map[string]any
	retry      resilience.RetryConfig
	recipients []string
}

// NewTool creates a tool-backed action. buildArgs derives the tool
// arguments from the action context; nil passes the latest content as
// {"input": ...}.
func NewTool(name string, invoker tool.Invoker, toolName string, retry resilience.RetryConfig, buildArgs func(Context) map[string]any, recipients ...string) *ToolAction {
	if buildArgs == nil {
		buildArgs = func(actx Context) map[string]any {
			return map[string]any{"input": actx.LatestContent()}
		}
	}
	return &ToolAction{
		name:       name,
		invoker:    invoker,
		toolName:   toolName,
		buildArgs:  buildArgs,
		retry:      retry,
		recipients: append([]string(nil), recipients...),
	}
}

// Name returns the action name.
func (a *ToolAction) Name() string { return a.name }

// Recipients returns the declared recipients.
func (a *ToolAction) Recipients() []string {
	return append([]string(nil), a.recipients...)
}

// Run invokes the tool through the retry policy.
func (a *ToolAction) Run(ctx context.Context, actx Context) (string, error) {
	args := a.buildArgs(actx)
	result, err := a.retry.DoWithResult(ctx, func() (any, error) {
		return a.invoker.Invoke(ctx, a.toolName, args)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

var _ Action = (*ToolAction)(nil)
