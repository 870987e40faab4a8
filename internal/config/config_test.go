package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/litsync/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.NotEmpty(t, cfg.API.BaseURL)
	assert.Positive(t, cfg.API.Timeout)
	assert.Positive(t, cfg.API.RequestsPerSecond)
	assert.NotEmpty(t, cfg.Storage.DataDir)
	assert.True(t, cfg.Sync.DownloadAttachments)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr string
	}{
		{
			name: "valid config",
			modify: func(c *config.Config) {
				// No modifications
			},
			wantErr: "",
		},
		{
			name: "missing base URL",
			modify: func(c *config.Config) {
				c.API.BaseURL = ""
			},
			wantErr: "api.base_url is required",
		},
		{
			name: "invalid log level",
			modify: func(c *config.Config) {
				c.Log.Level = "invalid"
			},
			wantErr: "invalid log level",
		},
		{
			name: "negative timeout",
			modify: func(c *config.Config) {
				c.API.Timeout = -1
			},
			wantErr: "api.timeout must be positive",
		},
		{
			name: "zero request rate",
			modify: func(c *config.Config) {
				c.API.RequestsPerSecond = 0
			},
			wantErr: "api.requests_per_second must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoaderEnvOverride(t *testing.T) {
	t.Setenv("LITSYNC_API_BASE_URL", "https://test.example.com")
	t.Setenv("LITSYNC_LOG_LEVEL", "debug")

	cfg, err := config.NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "https://test.example.com", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoaderConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "litsync.yaml")

	content := []byte("api:\n  base_url: https://file.example.com\nlog:\n  format: json\n")
	require.NoError(t, os.WriteFile(path, content, 0600))

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", cfg.API.BaseURL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, path, loader.ConfigFileUsed())
}

func TestLoaderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "litsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0600))

	_, err := config.NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Storage.AttachmentDir = filepath.Join(dir, "data", "attachments")
	cfg.Storage.DatabaseFile = filepath.Join(dir, "data", "library.db")
	cfg.Storage.CredsFile = filepath.Join(dir, "data", "credentials.json")

	require.NoError(t, cfg.EnsureDirectories())

	info, err := os.Stat(cfg.Storage.AttachmentDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
