package testutil

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwaldner/litsync/internal/config"
	"github.com/jwaldner/litsync/internal/events"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// TestContext returns a context with a generous test timeout.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// TestConfig builds a config rooted in a per-test temp directory,
// pointed at the given server URL.
func TestConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), "data")

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = serverURL
	cfg.API.Timeout = 10 * time.Second
	cfg.API.RequestsPerSecond = 1000 // No pacing in tests
	cfg.Storage.DataDir = dataDir
	cfg.Storage.AttachmentDir = filepath.Join(dataDir, "attachments")
	cfg.Storage.DatabaseFile = filepath.Join(dataDir, "library.db")
	cfg.Storage.CredsFile = filepath.Join(dataDir, "credentials.json")
	cfg.Log.Level = "debug"

	return cfg
}
