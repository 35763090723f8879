// Package tool defines the tool-call interface consumed by actions, a
// registry of named tools, and an MCP-backed invoker.
package tool

import (
	"context"
	"sort"
	"sync"

	"github.com/ensembleai/ensemble/pkg/errors"
)

// Invoker executes a named tool with arguments.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

// Tool is a single named capability.
type Tool interface {
	Name() string
	Call(ctx context.Context, args map[string]any) (string, error)
}

// Func adapts a plain function to Tool.
type Func struct {
	ToolName string
	Fn       func(ctx context.Context, args map[string]any) (string, error)
}

func (f Func) Name() string { return f.ToolName }

func (f Func) Call(ctx context.Context, args map[string]any) (string, error) {
	return f.Fn(ctx, args)
}

// Registry is a thread-safe Invoker over a set of registered tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool; the last registration for a name wins.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke executes the named tool. Unknown tools and tool panics surface as
// permanent TOOL_FAILURE errors; they are configuration problems, not
// transient backend hiccups.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", errors.New(errors.CodeToolFailure, "unknown tool", nil).
			WithContext("tool", name)
	}
	out, err := t.Call(ctx, args)
	if err != nil {
		if errors.IsTransient(err) {
			return "", err
		}
		return "", errors.New(errors.CodeToolFailure, "tool invocation failed", err).
			WithContext("tool", name)
	}
	return out, nil
}

var _ Invoker = (*Registry)(nil)
