package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
	v          *viper.Viper
}

// NewLoader creates a config loader. An empty configPath searches the
// default locations.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		v:          viper.New(),
	}
}

// Load reads configuration from .env, config file, and environment, in
// increasing precedence over the built-in defaults.
func (l *Loader) Load() (*Config, error) {
	// A .env next to the binary can seed LITSYNC_* variables.
	_ = godotenv.Load()

	defaults := DefaultConfig()
	l.setDefaults(defaults)

	l.v.SetEnvPrefix("LITSYNC")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
		}
	} else {
		l.v.SetConfigName("litsync")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "litsync"))
			l.v.AddConfigPath(filepath.Join(home, ".litsync"))
		}

		var notFound viper.ConfigFileNotFoundError
		if err := l.v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ConfigFileUsed reports the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// setDefaults registers defaults so env overrides work without a file.
func (l *Loader) setDefaults(cfg *Config) {
	l.v.SetDefault("api.base_url", cfg.API.BaseURL)
	l.v.SetDefault("api.timeout", cfg.API.Timeout)
	l.v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	l.v.SetDefault("api.requests_per_second", cfg.API.RequestsPerSecond)
	l.v.SetDefault("api.user_agent", cfg.API.UserAgent)

	l.v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	l.v.SetDefault("storage.attachment_dir", cfg.Storage.AttachmentDir)
	l.v.SetDefault("storage.database_file", cfg.Storage.DatabaseFile)
	l.v.SetDefault("storage.creds_file", cfg.Storage.CredsFile)
	l.v.SetDefault("storage.max_file_size", cfg.Storage.MaxFileSize)

	l.v.SetDefault("sync.download_attachments", cfg.Sync.DownloadAttachments)
	l.v.SetDefault("sync.extract_text", cfg.Sync.ExtractText)

	l.v.SetDefault("log.level", cfg.Log.Level)
	l.v.SetDefault("log.format", cfg.Log.Format)
	l.v.SetDefault("log.file", cfg.Log.File)
	l.v.SetDefault("log.max_size", cfg.Log.MaxSize)
	l.v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	l.v.SetDefault("log.max_age", cfg.Log.MaxAge)
}
