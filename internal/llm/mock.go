package llm

import (
	"context"
	"sync"
)

// MockCall records one call made to a MockProvider.
type MockCall struct {
	System string
	User   string   // set by Generate
	Batch  []string // set by GenerateBatch
	JSON   bool
}

// MockProvider is a scripted Provider for tests. Respond receives every call
// and returns the completion; a nil Respond answers with an empty string.
type MockProvider struct {
	Respond func(call MockCall) (string, error)

	mu    sync.Mutex
	calls []MockCall
}

// NewMockProvider returns a MockProvider answering with respond.
func NewMockProvider(respond func(call MockCall) (string, error)) *MockProvider {
	return &MockProvider{Respond: respond}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, system, user string, opts ...CallOption) (string, error) {
	return m.record(MockCall{System: system, User: user}, opts)
}

func (m *MockProvider) GenerateBatch(_ context.Context, system string, users []string, opts ...CallOption) (string, error) {
	return m.record(MockCall{System: system, Batch: append([]string(nil), users...)}, opts)
}

// Usage counts one request per call and no tokens.
func (m *MockProvider) Usage() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Usage{Requests: int64(len(m.calls))}
}

// Calls returns the calls made so far.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockProvider) record(call MockCall, opts []CallOption) (string, error) {
	var req Request
	for _, opt := range opts {
		opt(&req)
	}
	call.JSON = req.JSON

	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if m.Respond == nil {
		return "", nil
	}
	return m.Respond(call)
}
