package models

import (
	"strings"
	"time"
)

// Paper is a bibliographic record in the local library.
type Paper struct {
	ID             string    `json:"id"`
	ExternalKey    string    `json:"external_key,omitempty"` // Empty for manually added papers
	Title          string    `json:"title"`
	Year           int       `json:"year,omitempty"` // 0 when unknown
	DOI            string    `json:"doi,omitempty"`
	Venue          string    `json:"venue,omitempty"`
	Abstract       string    `json:"abstract,omitempty"`
	Authors        []string  `json:"authors,omitempty"` // Ordered display names
	AttachmentFile string    `json:"attachment_file,omitempty"`
	FullText       string    `json:"full_text,omitempty"`
	RemoteVersion  int       `json:"remote_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasAttachment reports whether a PDF has been recorded for this paper.
func (p *Paper) HasAttachment() bool {
	return strings.TrimSpace(p.AttachmentFile) != ""
}

// PaperMeta carries the metadata fields written by an upsert.
type PaperMeta struct {
	Title    string
	Year     int // 0 when unknown
	DOI      string
	Venue    string
	Abstract string
}

// LibraryStats summarizes the local library for status output.
type LibraryStats struct {
	Papers          int       `json:"papers"`
	WithAttachment  int       `json:"with_attachment"`
	WithFullText    int       `json:"with_full_text"`
	CursorVersion   int       `json:"cursor_version"`
	LastSyncTime    time.Time `json:"last_sync_time"`
}

// Credentials identify the remote library account.
type Credentials struct {
	APIKey string `json:"api_key"`
	UserID string `json:"user_id"`
}

// Valid reports whether both parts are present.
func (c *Credentials) Valid() bool {
	return c != nil && c.APIKey != "" && c.UserID != ""
}
