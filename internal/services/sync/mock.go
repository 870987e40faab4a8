package sync

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/jwaldner/litsync/internal/models"
)

// MockLibrary provides a mock LibraryClient for testing.
type MockLibrary struct {
	mu sync.Mutex

	// Responses keyed by sinceVersion
	Records       map[int][]models.RemoteRecord
	LatestVersion int
	Children      map[string][]models.RemoteRecord
	Attachments   map[string][]byte

	// Error injection
	FetchErr    error
	ChildrenErr map[string]error
	DownloadErr map[string]error

	// Blocks FetchChangedRecords until released (for guard tests)
	FetchGate chan struct{}

	// Request tracking
	FetchCalls    []int
	DownloadCalls []string
	Credentials   *models.Credentials
}

// NewMockLibrary creates a mock remote library.
func NewMockLibrary() *MockLibrary {
	return &MockLibrary{
		Records:     make(map[int][]models.RemoteRecord),
		Children:    make(map[string][]models.RemoteRecord),
		Attachments: make(map[string][]byte),
		ChildrenErr: make(map[string]error),
		DownloadErr: make(map[string]error),
	}
}

// SetCredentials records the credentials.
func (m *MockLibrary) SetCredentials(c *models.Credentials) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Credentials = c
}

// FetchChangedRecords returns the records configured for sinceVersion.
func (m *MockLibrary) FetchChangedRecords(ctx context.Context, sinceVersion int) ([]models.RemoteRecord, int, error) {
	m.mu.Lock()
	gate := m.FetchGate
	m.FetchCalls = append(m.FetchCalls, sinceVersion)
	err := m.FetchErr
	recs := m.Records[sinceVersion]
	latest := m.LatestVersion
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}

	if err != nil {
		return nil, 0, err
	}
	return recs, latest, nil
}

// FetchChildren returns the configured children of a record.
func (m *MockLibrary) FetchChildren(ctx context.Context, parentKey string) ([]models.RemoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ChildrenErr[parentKey]; err != nil {
		return nil, err
	}
	return m.Children[parentKey], nil
}

// DownloadAttachment returns the configured bytes of an attachment.
func (m *MockLibrary) DownloadAttachment(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DownloadCalls = append(m.DownloadCalls, key)
	if err := m.DownloadErr[key]; err != nil {
		return nil, err
	}
	return m.Attachments[key], nil
}

// MockAttachments is an in-memory AttachmentStore.
type MockAttachments struct {
	mu    sync.Mutex
	files map[string][]byte

	// Error injection
	WriteErr error
}

// NewMockAttachments creates an in-memory attachment store.
func NewMockAttachments() *MockAttachments {
	return &MockAttachments{files: make(map[string][]byte)}
}

// Write stores attachment bytes in memory.
func (m *MockAttachments) Write(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.files[name] = data
	return nil
}

// Exists reports whether a name has been written.
func (m *MockAttachments) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

// Path returns a fake absolute path for a name.
func (m *MockAttachments) Path(name string) string {
	return filepath.Join("/attachments", name)
}

// FileCount reports the number of stored files.
func (m *MockAttachments) FileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// MockExtractor returns canned text per path.
type MockExtractor struct {
	mu    sync.Mutex
	Texts map[string]string
	Calls []string
}

// NewMockExtractor creates a mock extractor.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{Texts: make(map[string]string)}
}

// Text returns the canned text for a path, or "".
func (m *MockExtractor) Text(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, path)
	return m.Texts[path]
}
