package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jwaldner/litsync/internal/models"
)

// MockStore provides an in-memory Store for testing.
type MockStore struct {
	mu     sync.RWMutex
	papers map[string]*models.Paper // keyed by local ID
	byKey  map[string]string        // external key -> local ID
	cursor models.SyncCursor
	nextID int

	// Error injection
	UpsertErr       error
	SetAttachErr    error
	UpdateTextErr   error
	SetCursorErr    error
	FailExternalKey string // Upsert fails only for this key
}

// NewMockStore creates a mock library store.
func NewMockStore() *MockStore {
	return &MockStore{
		papers: make(map[string]*models.Paper),
		byKey:  make(map[string]string),
	}
}

// Upsert inserts or updates by external key.
func (m *MockStore) Upsert(externalKey string, meta models.PaperMeta, authors []string, remoteVersion int) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpsertErr != nil {
		return "", false, m.UpsertErr
	}
	if m.FailExternalKey != "" && m.FailExternalKey == externalKey {
		return "", false, fmt.Errorf("simulated upsert failure for %s", externalKey)
	}

	if id, ok := m.byKey[externalKey]; ok {
		paper := m.papers[id]
		paper.Title = meta.Title
		paper.Year = meta.Year
		paper.DOI = meta.DOI
		paper.Venue = meta.Venue
		paper.Abstract = meta.Abstract
		paper.Authors = append([]string(nil), authors...)
		paper.RemoteVersion = remoteVersion
		paper.UpdatedAt = time.Now()
		return id, false, nil
	}

	m.nextID++
	id := fmt.Sprintf("paper-%d", m.nextID)
	m.papers[id] = &models.Paper{
		ID:            id,
		ExternalKey:   externalKey,
		Title:         meta.Title,
		Year:          meta.Year,
		DOI:           meta.DOI,
		Venue:         meta.Venue,
		Abstract:      meta.Abstract,
		Authors:       append([]string(nil), authors...),
		RemoteVersion: remoteVersion,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	m.byKey[externalKey] = id
	return id, true, nil
}

// Paper retrieves one paper.
func (m *MockStore) Paper(id string) (*models.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paper, ok := m.papers[id]
	if !ok {
		return nil, models.ErrPaperNotFound
	}
	copied := *paper
	return &copied, nil
}

// PaperByKey retrieves a paper by external key.
func (m *MockStore) PaperByKey(externalKey string) (*models.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[externalKey]
	if !ok {
		return nil, models.ErrPaperNotFound
	}
	copied := *m.papers[id]
	return &copied, nil
}

// List returns all papers, insertion order.
func (m *MockStore) List(limit int) ([]*models.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var papers []*models.Paper
	for _, p := range m.papers {
		copied := *p
		papers = append(papers, &copied)
	}
	sort.Slice(papers, func(i, j int) bool { return papers[i].ID < papers[j].ID })
	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

// Search does naive substring matching over title and abstract.
func (m *MockStore) Search(query string, limit int) ([]*models.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	var papers []*models.Paper
	for _, p := range m.papers {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Abstract), q) ||
			strings.Contains(strings.ToLower(p.FullText), q) {
			copied := *p
			papers = append(papers, &copied)
		}
	}
	sort.Slice(papers, func(i, j int) bool { return papers[i].ID < papers[j].ID })
	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

// SetAttachment records an attachment filename.
func (m *MockStore) SetAttachment(id, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetAttachErr != nil {
		return m.SetAttachErr
	}

	paper, ok := m.papers[id]
	if !ok {
		return models.ErrPaperNotFound
	}
	paper.AttachmentFile = filename
	return nil
}

// AttachmentFile returns the recorded filename or "".
func (m *MockStore) AttachmentFile(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paper, ok := m.papers[id]
	if !ok {
		return "", models.ErrPaperNotFound
	}
	return paper.AttachmentFile, nil
}

// PapersMissingText lists papers with attachment but no text.
func (m *MockStore) PapersMissingText() ([]*models.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var papers []*models.Paper
	for _, p := range m.papers {
		if p.AttachmentFile != "" && p.FullText == "" {
			copied := *p
			papers = append(papers, &copied)
		}
	}
	sort.Slice(papers, func(i, j int) bool { return papers[i].ID < papers[j].ID })
	return papers, nil
}

// UpdateFullText stores extracted text.
func (m *MockStore) UpdateFullText(id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateTextErr != nil {
		return m.UpdateTextErr
	}

	paper, ok := m.papers[id]
	if !ok {
		return models.ErrPaperNotFound
	}
	paper.FullText = text
	return nil
}

// Cursor reads the sync position.
func (m *MockStore) Cursor() (models.SyncCursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursor, nil
}

// SetCursor persists the sync position.
func (m *MockStore) SetCursor(version int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetCursorErr != nil {
		return m.SetCursorErr
	}

	m.cursor = models.SyncCursor{Version: version, LastSyncTime: at}
	return nil
}

// Stats summarizes the mock library.
func (m *MockStore) Stats() (*models.LibraryStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.LibraryStats{
		Papers:        len(m.papers),
		CursorVersion: m.cursor.Version,
		LastSyncTime:  m.cursor.LastSyncTime,
	}
	for _, p := range m.papers {
		if p.AttachmentFile != "" {
			stats.WithAttachment++
		}
		if p.FullText != "" {
			stats.WithFullText++
		}
	}
	return stats, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// PaperCount reports the number of stored papers (for test assertions).
func (m *MockStore) PaperCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.papers)
}
