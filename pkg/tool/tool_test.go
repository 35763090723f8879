package tool

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/ensembleai/ensemble/pkg/errors"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestRegistryInvoke(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Func{
		ToolName: "echo",
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			s, _ := args["text"].(string)
			return s, nil
		},
	})

	out, err := reg.Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if out != "hi" {
		t.Errorf("expected hi, got %q", out)
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke(context.Background(), "missing", nil)
	if errors.CodeOf(err) != errors.CodeToolFailure {
		t.Errorf("expected TOOL_FAILURE, got %v", err)
	}
	if errors.IsTransient(err) {
		t.Error("unknown tool is a configuration error, not transient")
	}
}

func TestRegistryWrapsPlainErrors(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Func{
		ToolName: "broken",
		Fn: func(context.Context, map[string]any) (string, error) {
			return "", stderrors.New("disk full")
		},
	})

	_, err := reg.Invoke(context.Background(), "broken", nil)
	if errors.CodeOf(err) != errors.CodeToolFailure {
		t.Errorf("expected TOOL_FAILURE, got %v", err)
	}
}

func TestRegistryPreservesTransientErrors(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Func{
		ToolName: "flaky",
		Fn: func(context.Context, map[string]any) (string, error) {
			return "", errors.New(errors.CodeTimeout, "backend slow", nil)
		},
	})

	_, err := reg.Invoke(context.Background(), "flaky", nil)
	if !errors.IsTransient(err) {
		t.Errorf("transient tool error must stay transient, got %v", err)
	}
}

type fakeCaller struct {
	result *mcp.CallToolResult
	err    error
}

func (f *fakeCaller) CallTool(_ context.Context, _ string, _ map[string]any) (*mcp.CallToolResult, error) {
	return f.result, f.err
}

func TestMCPAdapter(t *testing.T) {
	caller := &fakeCaller{
		result: &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("result text")},
		},
	}
	adapter, err := NewMCPAdapter(mcp.Tool{Name: "search"}, caller)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}

	out, err := adapter.Call(context.Background(), map[string]any{"q": "go"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if out != "result text" {
		t.Errorf("expected flattened text, got %q", out)
	}
}

func TestMCPAdapterErrorResult(t *testing.T) {
	caller := &fakeCaller{
		result: &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{mcp.NewTextContent("boom")},
		},
	}
	adapter, _ := NewMCPAdapter(mcp.Tool{Name: "search"}, caller)

	if _, err := adapter.Call(context.Background(), nil); err == nil {
		t.Fatal("expected error result to surface")
	}
}

func TestMCPAdapterValidation(t *testing.T) {
	if _, err := NewMCPAdapter(mcp.Tool{}, &fakeCaller{}); err == nil {
		t.Error("expected error for missing tool name")
	}
	if _, err := NewMCPAdapter(mcp.Tool{Name: "x"}, nil); err == nil {
		t.Error("expected error for missing caller")
	}
}
