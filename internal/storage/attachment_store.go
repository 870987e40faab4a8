package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwaldner/litsync/internal/events"
)

// AttachmentStore persists downloaded PDFs in a flat directory.
type AttachmentStore struct {
	baseDir     string
	maxFileSize int64
	logger      *events.Logger
}

// NewAttachmentStore creates an attachment store rooted at baseDir.
func NewAttachmentStore(baseDir string, maxFileSize int64, logger *events.Logger) (*AttachmentStore, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &AttachmentStore{
		baseDir:     absPath,
		maxFileSize: maxFileSize,
		logger:      logger.WithField("component", "attachment_store"),
	}, nil
}

// BaseDir returns the resolved attachment directory.
func (s *AttachmentStore) BaseDir() string {
	return s.baseDir
}

// Write saves attachment bytes atomically under the given filename.
func (s *AttachmentStore) Write(name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("attachment too large: %d bytes (max: %d)", len(data), s.maxFileSize)
	}

	s.logger.WithFields(map[string]interface{}{
		"name": name,
		"size": len(data),
	}).Debug("Writing attachment")

	tempPath := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if file, err := os.Open(tempPath); err == nil {
		_ = file.Sync()
		file.Close()
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Exists reports whether an attachment with this filename is on disk.
func (s *AttachmentStore) Exists(name string) bool {
	path, err := s.resolve(name)
	if err != nil {
		return false
	}

	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Path returns the absolute path of an attachment filename.
func (s *AttachmentStore) Path(name string) string {
	return filepath.Join(s.baseDir, name)
}

// Remove deletes an attachment if present.
func (s *AttachmentStore) Remove(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}

	return nil
}

// resolve rejects names that would escape the attachment directory.
func (s *AttachmentStore) resolve(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid attachment name: %q", name)
	}
	return filepath.Join(s.baseDir, name), nil
}
