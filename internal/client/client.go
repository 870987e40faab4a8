package client

import (
	"fmt"

	"github.com/jwaldner/litsync/internal/config"
	"github.com/jwaldner/litsync/internal/creds"
	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/services/extract"
	"github.com/jwaldner/litsync/internal/services/library"
	"github.com/jwaldner/litsync/internal/services/sync"
	"github.com/jwaldner/litsync/internal/store"
	"github.com/jwaldner/litsync/internal/storage"
	"github.com/jwaldner/litsync/internal/transport"
)

// Client provides the high-level API for litsync operations.
type Client struct {
	Library *library.Service
	Sync    *sync.Service
	Store   store.Store
	Creds   creds.Store

	config      *config.Config
	logger      *events.Logger
	transport   transport.Transport
	attachments *storage.AttachmentStore
	extractor   *extract.Service
}

// New wires the transport, stores, and services from config.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare data directories: %w", err)
	}

	transportClient := transport.NewHTTPClient(&cfg.API, logger)

	libraryService := library.NewService(transportClient, logger)

	paperStore, err := store.NewSQLiteStore(cfg.Storage.DatabaseFile, logger)
	if err != nil {
		return nil, fmt.Errorf("open library store: %w", err)
	}

	attachmentStore, err := storage.NewAttachmentStore(cfg.Storage.AttachmentDir, cfg.Storage.MaxFileSize, logger)
	if err != nil {
		paperStore.Close()
		return nil, fmt.Errorf("open attachment store: %w", err)
	}

	credStore := creds.NewFileStore(cfg.Storage.CredsFile)

	c := &Client{
		Library:     libraryService,
		Store:       paperStore,
		Creds:       credStore,
		config:      cfg,
		logger:      logger,
		transport:   transportClient,
		attachments: attachmentStore,
		extractor:   extract.NewService(logger),
	}
	c.Sync = c.NewSyncService()

	return c, nil
}

// NewSyncService builds a sync orchestrator from the current config.
// Callers that override sync options adjust config first.
func (c *Client) NewSyncService() *sync.Service {
	return sync.NewService(
		c.Library,
		c.Store,
		c.attachments,
		c.extractor,
		c.Creds,
		sync.Options{
			DownloadAttachments: c.config.Sync.DownloadAttachments,
			ExtractText:         c.config.Sync.ExtractText,
		},
		c.logger,
	)
}

// Close releases the client's resources.
func (c *Client) Close() error {
	if err := c.Store.Close(); err != nil {
		return fmt.Errorf("close library store: %w", err)
	}
	return c.transport.Close()
}
