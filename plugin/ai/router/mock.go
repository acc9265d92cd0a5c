package router

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// MockLLMClient is a canned LLMClient for tests and offline runs.
type MockLLMClient struct {
	mu        sync.Mutex
	responses map[string]string
	fallback  string
	err       error
	calls     int
	prompts   []string
}

// NewMockLLMClient creates a mock that answers every prompt with response.
func NewMockLLMClient(response string) *MockLLMClient {
	return &MockLLMClient{
		responses: make(map[string]string),
		fallback:  response,
	}
}

// SetResponse answers prompts containing substr with response.
func (m *MockLLMClient) SetResponse(substr, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[substr] = response
}

// SetError makes every call fail with err.
func (m *MockLLMClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Complete implements LLMClient.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, _ ModelConfig) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.prompts = append(m.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}
	for substr, response := range m.responses {
		if strings.Contains(prompt, substr) {
			return response, nil
		}
	}
	if m.fallback == "" {
		return "", errors.New("mock: no response configured")
	}
	return m.fallback, nil
}

// Calls returns how many times Complete was called.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockLLMClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

var _ LLMClient = (*MockLLMClient)(nil)
