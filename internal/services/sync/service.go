package sync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jwaldner/litsync/internal/creds"
	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/models"
	"github.com/jwaldner/litsync/internal/store"
	"github.com/jwaldner/litsync/internal/storage"
)

// LibraryClient is the remote library surface the orchestrator consumes.
type LibraryClient interface {
	SetCredentials(c *models.Credentials)
	FetchChangedRecords(ctx context.Context, sinceVersion int) ([]models.RemoteRecord, int, error)
	FetchChildren(ctx context.Context, parentKey string) ([]models.RemoteRecord, error)
	DownloadAttachment(ctx context.Context, key string) ([]byte, error)
}

// AttachmentStore is the blob surface the orchestrator consumes.
type AttachmentStore interface {
	Write(name string, data []byte) error
	Exists(name string) bool
	Path(name string) string
}

// Extractor converts a PDF file to plain text, best-effort.
type Extractor interface {
	Text(path string) string
}

// Phase identifies the stage a progress event belongs to.
type Phase string

const (
	PhaseMetadata    Phase = "metadata"
	PhaseDownloading Phase = "downloading"
	PhaseExtracting  Phase = "extracting"
	PhaseComplete    Phase = "complete"
	PhaseError       Phase = "error"
)

// Event is one progress update. Events are observational only; dropping
// or ignoring them never affects the sync outcome.
type Event struct {
	Phase       Phase
	Current     int
	Total       int
	RecordTitle string
	Err         error
	Timestamp   time.Time
}

// Options configures a sync cycle.
type Options struct {
	DownloadAttachments bool
	ExtractText         bool
}

// Service runs complete reconciliation cycles between the remote library
// and the local store. At most one cycle runs at a time per Service; a
// concurrent request is rejected, not queued.
type Service struct {
	library     LibraryClient
	store       store.Store
	attachments AttachmentStore
	extractor   Extractor
	creds       creds.Store
	opts        Options
	logger      *events.Logger

	// In-flight guard, owned by this instance
	running atomic.Bool

	mu     sync.Mutex
	events chan Event
}

// NewService creates a sync orchestrator.
func NewService(
	library LibraryClient,
	st store.Store,
	attachments AttachmentStore,
	extractor Extractor,
	credStore creds.Store,
	opts Options,
	logger *events.Logger,
) *Service {
	return &Service{
		library:     library,
		store:       st,
		attachments: attachments,
		extractor:   extractor,
		creds:       credStore,
		opts:        opts,
		logger:      logger.WithField("service", "sync"),
		events:      make(chan Event, 100),
	}
}

// Events returns the progress event channel for the next (or running)
// cycle. Register listeners before calling Run; the channel is closed
// when that cycle finishes, and a fresh channel takes its place for the
// following cycle.
func (s *Service) Events() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// Run executes one full reconciliation cycle and reports a SyncResult.
// Failures are encoded in the result; Run never panics past the caller
// and the in-flight guard is released on every path.
func (s *Service) Run(ctx context.Context) *models.SyncResult {
	result := &models.SyncResult{}

	if !s.running.CompareAndSwap(false, true) {
		result.Errors = append(result.Errors, models.ErrSyncInProgress.Error())
		return result
	}
	defer s.running.Store(false)

	defer s.closeEvents()

	cred, err := s.creds.Retrieve()
	if err != nil {
		return s.fail(result, "credentials", fmt.Errorf("retrieve credentials: %w", err))
	}
	if !cred.Valid() {
		return s.fail(result, "credentials", models.ErrNoCredentials)
	}
	s.library.SetCredentials(cred)

	cursor, err := s.store.Cursor()
	if err != nil {
		return s.fail(result, "cursor", fmt.Errorf("read sync cursor: %w", err))
	}
	result.LibraryVersion = cursor.Version

	syncID := uuid.NewString()[:8]
	ctx = events.WithSyncID(ctx, syncID)

	s.logger.WithFields(map[string]interface{}{
		"sync_id":       syncID,
		"since_version": cursor.Version,
	}).Info("Starting sync")
	start := time.Now()

	records, latest, err := s.library.FetchChangedRecords(ctx, cursor.Version)
	if err != nil {
		// The cursor is not advanced when the fetch fails entirely.
		return s.fail(result, "fetch", fmt.Errorf("fetch remote records: %w", err))
	}

	papers := make([]models.RemoteRecord, 0, len(records))
	for _, rec := range records {
		if rec.IsPaper() {
			papers = append(papers, rec)
		}
	}

	// Records are processed one at a time, in the order the remote
	// returned them. One record's failure never aborts the cycle.
	total := len(papers)
	for i, rec := range papers {
		s.emit(Event{
			Phase:       PhaseMetadata,
			Current:     i + 1,
			Total:       total,
			RecordTitle: rec.Data.Title,
			Timestamp:   time.Now(),
		})

		if err := s.processRecord(ctx, rec, i+1, total, result); err != nil {
			recErr := &models.RecordError{Key: rec.Key, Title: rec.Data.Title, Err: err}
			s.logger.WithError(recErr).Warn("Record import failed")
			result.Errors = append(result.Errors,
				fmt.Sprintf("Failed to import '%s': %v", rec.Data.Title, err))
		}
	}

	if s.opts.ExtractText {
		s.runExtraction()
	}

	// The cursor advances after the full cycle, whether or not
	// individual records failed. It never moves backwards.
	newVersion := latest
	if newVersion < cursor.Version {
		newVersion = cursor.Version
	}
	if err := s.store.SetCursor(newVersion, time.Now()); err != nil {
		s.logger.WithError(err).Error("Failed to persist sync cursor")
		result.Errors = append(result.Errors,
			fmt.Sprintf("Failed to persist sync cursor: %v", err))
	} else {
		result.LibraryVersion = newVersion
	}

	s.emit(Event{Phase: PhaseComplete, Current: total, Total: total, Timestamp: time.Now()})

	s.logger.WithFields(map[string]interface{}{
		"duration":   time.Since(start),
		"imported":   result.Imported,
		"updated":    result.Updated,
		"downloaded": result.PDFsDownloaded,
		"errors":     len(result.Errors),
		"version":    result.LibraryVersion,
	}).Info("Sync completed")

	return result
}

// processRecord reconciles one remote record: metadata upsert, then
// attachment download.
func (s *Service) processRecord(ctx context.Context, rec models.RemoteRecord, current, total int, result *models.SyncResult) error {
	ctx = events.WithRecordKey(ctx, rec.Key)

	year, _ := models.ParseYear(rec.Data.Date)
	authors := models.AuthorNames(rec.Data.Creators)

	meta := models.PaperMeta{
		Title:    rec.Data.Title,
		Year:     year,
		DOI:      rec.Data.DOI,
		Venue:    rec.Data.PublicationTitle,
		Abstract: rec.Data.AbstractNote,
	}

	id, inserted, err := s.store.Upsert(rec.Key, meta, authors, rec.Version)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	if inserted {
		result.Imported++
	} else {
		result.Updated++
	}

	if !s.opts.DownloadAttachments {
		return nil
	}

	return s.downloadAttachment(ctx, rec, id, authors, year, current, total, result)
}

// downloadAttachment fetches the record's first stored PDF child, unless
// one is already on disk. A record without a PDF is not an error.
func (s *Service) downloadAttachment(ctx context.Context, rec models.RemoteRecord, paperID string, authors []string, year, current, total int, result *models.SyncResult) error {
	existing, err := s.store.AttachmentFile(paperID)
	if err != nil {
		return fmt.Errorf("check attachment: %w", err)
	}
	if existing != "" && s.attachments.Exists(existing) {
		return nil
	}

	children, err := s.library.FetchChildren(ctx, rec.Key)
	if err != nil {
		return fmt.Errorf("fetch attachments: %w", err)
	}

	pdfKey := ""
	for _, child := range children {
		if child.IsStoredPDF() {
			pdfKey = child.Key
			break
		}
	}
	if pdfKey == "" {
		return nil
	}

	s.emit(Event{
		Phase:       PhaseDownloading,
		Current:     current,
		Total:       total,
		RecordTitle: rec.Data.Title,
		Timestamp:   time.Now(),
	})

	data, err := s.library.DownloadAttachment(ctx, pdfKey)
	if err != nil {
		return fmt.Errorf("download attachment: %w", err)
	}

	name := storage.GenerateFilename(authors, year, s.attachments.Exists)
	if err := s.attachments.Write(name, data); err != nil {
		return fmt.Errorf("write attachment: %w", err)
	}
	if err := s.store.SetAttachment(paperID, name); err != nil {
		return fmt.Errorf("record attachment: %w", err)
	}

	result.PDFsDownloaded++
	return nil
}

// runExtraction converts downloaded PDFs without extracted text. This
// pass is best-effort: failures are logged, never surfaced, and never
// block cursor advancement.
func (s *Service) runExtraction() {
	papers, err := s.store.PapersMissingText()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to scan for papers missing text")
		return
	}

	for i, paper := range papers {
		s.emit(Event{
			Phase:       PhaseExtracting,
			Current:     i + 1,
			Total:       len(papers),
			RecordTitle: paper.Title,
			Timestamp:   time.Now(),
		})

		text := s.extractor.Text(s.attachments.Path(paper.AttachmentFile))
		if text == "" {
			s.logger.WithField("paper_id", paper.ID).Debug("Extraction yielded no text")
			continue
		}

		if err := s.store.UpdateFullText(paper.ID, text); err != nil {
			s.logger.WithError(err).WithField("paper_id", paper.ID).Debug("Failed to store extracted text")
		}
	}
}

// fail records a cycle-level error and emits an error event.
func (s *Service) fail(result *models.SyncResult, phase string, err error) *models.SyncResult {
	serr := &models.SyncError{Phase: phase, Err: err}
	s.logger.WithError(serr).Error("Sync failed")
	s.emit(Event{Phase: PhaseError, Err: serr, Timestamp: time.Now()})
	result.Errors = append(result.Errors, err.Error())
	return result
}

// closeEvents ends the cycle's event stream and immediately installs a
// fresh channel, so a listener registered between cycles always gets the
// live one.
func (s *Service) closeEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.events)
	s.events = make(chan Event, 100)
}

// emit delivers a progress event without ever blocking the cycle.
func (s *Service) emit(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.events <- event:
	default:
		s.logger.Debug("Event channel full, dropping event")
	}
}
