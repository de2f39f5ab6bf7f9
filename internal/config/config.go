// Package config loads and validates desktop-search configuration from
// YAML, with defaults for every field so an empty file is a valid one.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
)

// DefaultDirName is the per-user state directory under $HOME.
const DefaultDirName = ".desktop-search"

// Config is the root configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Sources SourcesConfig `yaml:"sources"`
	Search  SearchConfig  `yaml:"search"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig controls index building and persistence.
type IndexConfig struct {
	// Dir holds the snapshot artifact, fingerprint database and lock
	// file. Defaults to ~/.desktop-search.
	Dir string `yaml:"dir"`
	// MaxFileSize is the per-file extraction cap in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
	// Workers bounds concurrent text extraction during a pass.
	Workers int `yaml:"workers"`
}

// SourcesConfig lists what gets indexed.
type SourcesConfig struct {
	// Roots are local directory trees to index.
	Roots []string `yaml:"roots"`
	// Remotes configure cloud-storage sources.
	Remotes []RemoteConfig `yaml:"remotes"`
}

// RemoteConfig configures one remote source.
type RemoteConfig struct {
	// Prefix namespaces this source's document ids. Must be unique.
	Prefix string `yaml:"prefix"`
	// Folder restricts the listing to one provider folder.
	Folder string `yaml:"folder"`
	// Query is an optional provider-side listing filter.
	Query string `yaml:"query"`
}

// SearchConfig controls query-time behavior.
type SearchConfig struct {
	// Limit is the default result cap.
	Limit int `yaml:"limit"`
	// CacheSize bounds the tokenized-document cache.
	CacheSize int `yaml:"cache_size"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Debounce is how long the watcher waits after the last filesystem
	// event before triggering an incremental pass.
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Dir:         defaultDir(),
			MaxFileSize: 10 * 1024 * 1024,
			Workers:     4,
		},
		Search: SearchConfig{
			Limit:     10,
			CacheSize: 1024,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path and merges it over the defaults. A missing file is not
// an error; a present but unreadable or invalid one is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, dserrors.New(dserrors.ErrCodeConfigNotFound, "cannot read config file", err).
			WithDetail("path", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, dserrors.New(dserrors.ErrCodeConfigInvalid, "cannot parse config file", err).
			WithDetail("path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints and fills empty fields with
// defaults.
func (c *Config) Validate() error {
	if c.Index.Dir == "" {
		c.Index.Dir = defaultDir()
	}
	if c.Index.MaxFileSize <= 0 {
		c.Index.MaxFileSize = 10 * 1024 * 1024
	}
	if c.Index.Workers <= 0 {
		c.Index.Workers = 4
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 10
	}
	if c.Search.CacheSize <= 0 {
		c.Search.CacheSize = 1024
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 2 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return dserrors.New(dserrors.ErrCodeConfigInvalid, "invalid log level", nil).
			WithDetail("level", c.Logging.Level).
			WithSuggestion("use one of: debug, info, warn, error")
	}

	seen := make(map[string]struct{})
	for _, remote := range c.Sources.Remotes {
		if remote.Prefix == "" {
			return dserrors.New(dserrors.ErrCodeConfigInvalid, "remote source requires a prefix", nil)
		}
		if _, dup := seen[remote.Prefix]; dup {
			return dserrors.New(dserrors.ErrCodeConfigInvalid, "duplicate remote prefix", nil).
				WithDetail("prefix", remote.Prefix)
		}
		seen[remote.Prefix] = struct{}{}
	}

	return nil
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

// SnapshotPath returns the index artifact location.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Index.Dir, "index.json")
}

// FingerprintPath returns the fingerprint database location.
func (c *Config) FingerprintPath() string {
	return filepath.Join(c.Index.Dir, "fingerprints.db")
}

// LockPath returns the build lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Index.Dir, "index.lock")
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}
