// Package config provides configuration types, defaults, and persistence for
// opsdeck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opsdeck/opsdeck/internal/log"
	"github.com/opsdeck/opsdeck/internal/store"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all configuration options for opsdeck.
type Config struct {
	Storage             StorageConfig  `mapstructure:"storage"`
	AutoRefresh         bool           `mapstructure:"auto_refresh"`
	AutoRefreshDebounce time.Duration  `mapstructure:"auto_refresh_debounce"`
	UI                  UIConfig       `mapstructure:"ui"`
	Insights            InsightsConfig `mapstructure:"insights"`
	Tracing             TracingConfig  `mapstructure:"tracing"`
}

// StorageConfig selects where the workflow collection lives.
type StorageConfig struct {
	// Backend is "file" (single JSON document, the default) or "sqlite"
	// (one row per workflow; avoids the cross-process last-writer-wins
	// race of the file backend).
	Backend string `mapstructure:"backend"`

	// Dir is the directory holding the store. Default: ~/.opsdeck
	Dir string `mapstructure:"dir"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowCounts    bool   `mapstructure:"show_counts"`
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// InsightsConfig holds the insight feed settings.
type InsightsConfig struct {
	// Endpoint is the backend base URL. Empty disables the feed.
	Endpoint string `mapstructure:"endpoint"`

	// CacheTTL controls how long a fetched feed is served from cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// DisableCache bypasses the read-through cache entirely.
	DisableCache bool `mapstructure:"disable_cache"`
}

// TracingConfig holds tracing configuration for service operations.
type TracingConfig struct {
	// Enabled controls whether tracing is active. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "stdout", "otlp". Default: "stdout"
	Exporter string `mapstructure:"exporter"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0). Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultStoreDir returns ~/.opsdeck, or empty string if the home directory
// is unavailable.
func DefaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".opsdeck")
}

// StoreFilePath returns the path of the JSON store slot for this config.
func (c Config) StoreFilePath() string {
	return filepath.Join(c.storeDir(), store.DefaultFileName)
}

// StoreDBPath returns the path of the sqlite store for this config.
func (c Config) StoreDBPath() string {
	return filepath.Join(c.storeDir(), "workflows.db")
}

func (c Config) storeDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return DefaultStoreDir()
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Dir:     "",
		},
		AutoRefresh:         true,
		AutoRefreshDebounce: 500 * time.Millisecond,
		UI: UIConfig{
			ShowCounts:    true,
			ShowStatusBar: true,
			MarkdownStyle: "dark",
		},
		Insights: InsightsConfig{
			Endpoint:     "",
			CacheTTL:     5 * time.Minute,
			DisableCache: false,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// ValidateStorage checks storage configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateStorage(storage StorageConfig) error {
	switch storage.Backend {
	case "", BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendFile, BackendSQLite, storage.Backend)
	}

	if storage.Dir != "" && !filepath.IsAbs(storage.Dir) {
		return fmt.Errorf("storage.dir must be an absolute path, got %q", storage.Dir)
	}

	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// ValidateInsights checks the insight feed configuration for errors.
func ValidateInsights(insights InsightsConfig) error {
	if insights.CacheTTL < 0 {
		return fmt.Errorf("insights.cache_ttl must not be negative, got %v", insights.CacheTTL)
	}
	return nil
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if err := ValidateStorage(cfg.Storage); err != nil {
		return err
	}
	if err := ValidateInsights(cfg.Insights); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Opsdeck Configuration

# Where the workflow collection lives
storage:
  # backend: file    # "file" (single JSON document, default) or "sqlite" (one row per workflow)
  # dir: /path/to/dir  # default: ~/.opsdeck

# Auto-refresh the board when another process changes the store
auto_refresh: true
auto_refresh_debounce: 500ms

# UI settings
ui:
  show_counts: true       # Show workflow counts in column headers
  show_status_bar: true   # Show status bar at bottom
  # markdown_style: dark  # Markdown rendering style: "dark" (default) or "light"

# AI insight feed
# insights:
#   endpoint: https://api.example.com   # Backend base URL; empty disables the feed
#   cache_ttl: 5m                       # How long a fetched feed is served from cache
#   disable_cache: false                # Bypass the cache entirely

# Tracing of workflow service operations
# tracing:
#   enabled: false                # Enable/disable tracing (default: false)
#   exporter: stdout              # Export backend: none, stdout, otlp (default: stdout)
#   otlp_endpoint: localhost:4317 # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0              # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
