package models

import "time"

// SyncCursor is the persisted incremental-sync position. It is read at
// cycle start and written only after a cycle completes.
type SyncCursor struct {
	Version      int       `json:"version"` // Last-seen remote library version
	LastSyncTime time.Time `json:"last_sync_time"`
}

// SyncResult summarizes one sync cycle. It is returned to the caller and
// never persisted.
type SyncResult struct {
	Imported       int      `json:"imported"`
	Updated        int      `json:"updated"`
	PDFsDownloaded int      `json:"pdfs_downloaded"`
	Errors         []string `json:"errors"`
	LibraryVersion int      `json:"library_version"`
}

// Failed reports whether any record-level or cycle-level error occurred.
func (r *SyncResult) Failed() bool {
	return len(r.Errors) > 0
}
