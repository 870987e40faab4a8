package store

import (
	"time"

	"github.com/jwaldner/litsync/internal/models"
)

// Store manages the local papers library.
type Store interface {
	// Upsert inserts or updates a paper by external key, replacing its
	// author list. It reports the local ID and whether a new row was
	// created.
	Upsert(externalKey string, meta models.PaperMeta, authors []string, remoteVersion int) (string, bool, error)

	// Paper retrieves one paper with its author list.
	Paper(id string) (*models.Paper, error)

	// PaperByKey retrieves a paper by its external key.
	PaperByKey(externalKey string) (*models.Paper, error)

	// List returns papers ordered by last update, newest first.
	List(limit int) ([]*models.Paper, error)

	// Search runs a full-text query over title, abstract, and extracted
	// text, best matches first.
	Search(query string, limit int) ([]*models.Paper, error)

	// SetAttachment records the downloaded attachment filename.
	SetAttachment(id, filename string) error

	// AttachmentFile returns the recorded attachment filename, or ""
	// when none has been downloaded.
	AttachmentFile(id string) (string, error)

	// PapersMissingText lists papers that have an attachment but no
	// extracted full text.
	PapersMissingText() ([]*models.Paper, error)

	// UpdateFullText stores extracted text for a paper.
	UpdateFullText(id, text string) error

	// Cursor reads the persisted sync position.
	Cursor() (models.SyncCursor, error)

	// SetCursor persists the sync position.
	SetCursor(version int, at time.Time) error

	// Stats summarizes the library.
	Stats() (*models.LibraryStats, error)

	// Close releases resources.
	Close() error
}
