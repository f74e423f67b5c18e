// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"sync"
)

// MockProvider answers from a script. Each call returns the next entry of
// Responses; once exhausted the last one repeats. Requests records every
// call.
type MockProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	ChatFunc  func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Requests  []ChatRequest
	calls     int
}

// NewMockProvider returns a provider that answers with responses in order.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{Responses: responses}
}

// Chat implements Provider.
func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	idx := m.calls
	m.calls++
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, errors.New("mock provider: no responses configured")
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	content := m.Responses[idx]
	return &ChatResponse{
		Content: content,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// Calls returns how many times Chat was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
