package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Remote library API
	API APIConfig `mapstructure:"api"`

	// Local storage paths
	Storage StorageConfig `mapstructure:"storage"`

	// Sync behavior
	Sync SyncConfig `mapstructure:"sync"`

	// Logging
	Log LogConfig `mapstructure:"log"`
}

// APIConfig for remote library communication.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// StorageConfig for local file paths.
type StorageConfig struct {
	DataDir       string `mapstructure:"data_dir"`       // Base directory for all data
	AttachmentDir string `mapstructure:"attachment_dir"` // Downloaded PDFs
	DatabaseFile  string `mapstructure:"database_file"`  // SQLite library path
	CredsFile     string `mapstructure:"creds_file"`     // Stored API credentials
	MaxFileSize   int64  `mapstructure:"max_file_size"`  // Max attachment size in bytes
}

// SyncConfig for synchronization behavior.
type SyncConfig struct {
	DownloadAttachments bool `mapstructure:"download_attachments"` // Fetch PDFs for synced papers
	ExtractText         bool `mapstructure:"extract_text"`         // Run text extraction after sync
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // text, json
	File       string `mapstructure:"file"`        // Log file path (empty = stdout)
	MaxSize    int    `mapstructure:"max_size"`    // Max log file size in MB
	MaxBackups int    `mapstructure:"max_backups"` // Max number of old logs
	MaxAge     int    `mapstructure:"max_age"`     // Max age in days
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".litsync"

	return &Config{
		API: APIConfig{
			BaseURL:           "https://api.zotero.org",
			Timeout:           60 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 2,
			UserAgent:         "litsync/1.0",
		},
		Storage: StorageConfig{
			DataDir:       dataDir,
			AttachmentDir: filepath.Join(dataDir, "attachments"),
			DatabaseFile:  filepath.Join(dataDir, "library.db"),
			CredsFile:     filepath.Join(dataDir, "credentials.json"),
			MaxFileSize:   100 * 1024 * 1024, // 100MB
		},
		Sync: SyncConfig{
			DownloadAttachments: true,
			ExtractText:         true,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			File:       "",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}

	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries cannot be negative")
	}

	if c.API.RequestsPerSecond <= 0 {
		return errors.New("api.requests_per_second must be positive")
	}

	if c.Storage.MaxFileSize <= 0 {
		return errors.New("storage.max_file_size must be positive")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		c.Storage.AttachmentDir,
		filepath.Dir(c.Storage.DatabaseFile),
		filepath.Dir(c.Storage.CredsFile),
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
