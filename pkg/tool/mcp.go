package tool

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// MCPCaller abstracts MCP tool execution so adapters stay independent of
// the transport (stdio, HTTP) behind the client.
type MCPCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// MCPAdapter wraps an MCP tool definition to satisfy Tool.
type MCPAdapter struct {
	tool   mcp.Tool
	caller MCPCaller
}

// NewMCPAdapter builds a Tool backed by an MCP tool definition and caller.
func NewMCPAdapter(t mcp.Tool, caller MCPCaller) (*MCPAdapter, error) {
	if t.Name == "" {
		return nil, stderrors.New("mcp tool name is required")
	}
	if caller == nil {
		return nil, stderrors.New("mcp caller is required")
	}
	return &MCPAdapter{tool: t, caller: caller}, nil
}

// Name returns the MCP tool name.
func (a *MCPAdapter) Name() string {
	return a.tool.Name
}

// Call invokes the MCP tool and flattens the text content of the result.
func (a *MCPAdapter) Call(ctx context.Context, args map[string]any) (string, error) {
	result, err := a.caller.CallTool(ctx, a.tool.Name, args)
	if err != nil {
		return "", err
	}
	text := extractTextContent(result.Content)
	if result.IsError {
		return "", stderrors.New(strings.TrimSpace("mcp tool error: " + text))
	}
	return text, nil
}

func extractTextContent(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		if tc, ok := mcp.AsTextContent(item); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var _ Tool = (*MCPAdapter)(nil)
