package transport

import (
	"context"
	"net/url"
	"sync"
)

// MockTransport provides a mock implementation for testing.
type MockTransport struct {
	mu sync.Mutex

	// Response configuration, keyed by path
	JSONResponses map[string][]*APIResponse // Consumed in order per path
	DownloadData  map[string][]byte

	// Error injection
	JSONErrors     map[string]error
	DownloadErrors map[string]error

	// Request tracking
	JSONRequests     []JSONRequest
	DownloadRequests []string

	apiKey string
}

// JSONRequest records one GetJSON call.
type JSONRequest struct {
	Path  string
	Query url.Values
}

// NewMockTransport creates a mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		JSONResponses:  make(map[string][]*APIResponse),
		DownloadData:   make(map[string][]byte),
		JSONErrors:     make(map[string]error),
		DownloadErrors: make(map[string]error),
	}
}

// AddJSONResponse queues a response for a path. Multiple responses for
// the same path are returned in order, simulating pagination.
func (m *MockTransport) AddJSONResponse(path string, resp *APIResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.JSONResponses[path] = append(m.JSONResponses[path], resp)
}

// GetJSON returns the next queued response for the path.
func (m *MockTransport) GetJSON(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.JSONRequests = append(m.JSONRequests, JSONRequest{Path: path, Query: query})

	if err := m.JSONErrors[path]; err != nil {
		return nil, err
	}

	queue := m.JSONResponses[path]
	if len(queue) == 0 {
		return &APIResponse{Body: []byte("[]"), StatusCode: 200}, nil
	}

	resp := queue[0]
	m.JSONResponses[path] = queue[1:]
	return resp, nil
}

// Download returns configured bytes for the path.
func (m *MockTransport) Download(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DownloadRequests = append(m.DownloadRequests, path)

	if err := m.DownloadErrors[path]; err != nil {
		return nil, err
	}

	return m.DownloadData[path], nil
}

// SetAPIKey records the API key.
func (m *MockTransport) SetAPIKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKey = key
}

// APIKey returns the recorded API key.
func (m *MockTransport) APIKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiKey
}

// Close is a no-op.
func (m *MockTransport) Close() error {
	return nil
}
