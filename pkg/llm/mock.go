package llm

import (
	"context"

	"github.com/ensembleai/ensemble/pkg/errors"
)

// MockProvider is a testing implementation of Provider.
type MockProvider struct {
	Response string
	Err      error
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &ChatResponse{
		Content: m.Response,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// FailingMockProvider always fails with the configured error, or a
// transient server error by default.
type FailingMockProvider struct {
	Err error
}

func (f *FailingMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if f.Err == nil {
		return nil, errors.New(errors.CodeServerError, "mock backend failure", nil)
	}
	return nil, f.Err
}
