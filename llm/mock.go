package llm

import "context"

// MockClient implements Client for tests. Responses are served in order;
// the last entry repeats once the queue is exhausted.
type MockClient struct {
	responses []ChatResponse
	errs      []error
	index     int

	// Requests records every request received, in order.
	Requests []ChatRequest
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

// Enqueue adds a successful response to the queue.
func (m *MockClient) Enqueue(content string) *MockClient {
	m.responses = append(m.responses, ChatResponse{Content: content})
	m.errs = append(m.errs, nil)
	return m
}

// EnqueueError adds a failing call to the queue.
func (m *MockClient) EnqueueError(err error) *MockClient {
	m.responses = append(m.responses, ChatResponse{})
	m.errs = append(m.errs, err)
	return m
}

// Calls returns how many completions were attempted.
func (m *MockClient) Calls() int {
	return len(m.Requests)
}

func (m *MockClient) Complete(_ context.Context, req ChatRequest) (ChatResponse, error) {
	m.Requests = append(m.Requests, req)
	if len(m.responses) == 0 {
		return ChatResponse{Content: ""}, nil
	}
	i := m.index
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	} else {
		m.index++
	}
	if m.errs[i] != nil {
		return ChatResponse{}, m.errs[i]
	}
	return m.responses[i], nil
}
