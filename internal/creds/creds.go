// Package creds stores the remote library credentials as an injected
// capability, so the sync service never touches the filesystem directly.
package creds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jwaldner/litsync/internal/models"
)

// Store provides credential persistence.
type Store interface {
	// Retrieve returns the stored credentials, or nil when none exist.
	Retrieve() (*models.Credentials, error)

	// Store persists credentials.
	Store(c *models.Credentials) error

	// Clear removes stored credentials.
	Clear() error
}

// FileStore keeps credentials in a mode-0600 JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed credential store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Retrieve reads credentials from disk. A missing file is not an error.
func (s *FileStore) Retrieve() (*models.Credentials, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var c models.Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	if !c.Valid() {
		return nil, nil
	}

	return &c, nil
}

// Store writes credentials with restrictive permissions.
func (s *FileStore) Store(c *models.Credentials) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	return nil
}

// Clear removes the credentials file.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// MemoryStore keeps credentials in memory. Used in tests.
type MemoryStore struct {
	mu    sync.Mutex
	creds *models.Credentials

	// Error injection
	RetrieveErr error
}

// NewMemoryStore creates an in-memory credential store.
func NewMemoryStore(c *models.Credentials) *MemoryStore {
	return &MemoryStore{creds: c}
}

// Retrieve returns the held credentials.
func (s *MemoryStore) Retrieve() (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RetrieveErr != nil {
		return nil, s.RetrieveErr
	}
	return s.creds, nil
}

// Store replaces the held credentials.
func (s *MemoryStore) Store(c *models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = c
	return nil
}

// Clear drops the held credentials.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}
