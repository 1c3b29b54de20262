package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FeedConfig holds the remote YAML feed endpoints.
type FeedConfig struct {
	// ConferenceURL serves the conference series/instances/timelines document.
	ConferenceURL string `yaml:"conference_url" json:"conference_url"`
	// AcceptanceURL serves the historical acceptance-rate document.
	AcceptanceURL string `yaml:"acceptance_url" json:"acceptance_url"`
}

// OCRConfig holds the formula-recognition vendor endpoint and credentials.
type OCRConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Token is sent as the vendor auth header on every recognition request.
	Token string `yaml:"token" json:"token"`
}

// RankConfig holds the publication-ranking vendor endpoint and credentials.
type RankConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Key      string `yaml:"key" json:"key"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir is the base directory for the persisted feed cache and the
	// key-value store.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// RefreshCron is a cron-style schedule string for the periodic feed
	// refresh. A refresh also runs once at startup.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// SnapshotTTLHours is the freshness window, per data kind, for the
	// key-value snapshot cache. Snapshots older than this are re-fetched,
	// falling back to the stale copy only when the re-fetch fails.
	SnapshotTTLHours map[string]int `yaml:"snapshot_ttl_hours" json:"snapshot_ttl_hours"`

	// HistoryLimit caps the number of recognition/search history records kept.
	HistoryLimit int `yaml:"history_limit" json:"history_limit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Feeds FeedConfig `yaml:"feeds" json:"feeds"`
	OCR   OCRConfig  `yaml:"ocr" json:"ocr"`
	Rank  RankConfig `yaml:"rank" json:"rank"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultDataDir     = "./var/confdash"
	defaultRefreshCron = "0 0 * * *"
	defaultTTLHours    = 7 * 24
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		DataDir:     defaultDataDir,
		RefreshCron: defaultRefreshCron,
		SnapshotTTLHours: map[string]int{
			"conferences": defaultTTLHours,
			"acceptances": defaultTTLHours,
		},
		HistoryLimit: 100,
		LogLevel:     "info",
		Feeds: FeedConfig{
			ConferenceURL: "https://ccfddl.com/conference/allconf.yml",
			AcceptanceURL: "https://ccfddl.com/conference/allacc.yml",
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.SnapshotTTLHours == nil {
		c.SnapshotTTLHours = map[string]int{}
	}
	for _, kind := range []string{"conferences", "acceptances"} {
		if c.SnapshotTTLHours[kind] <= 0 {
			c.SnapshotTTLHours[kind] = defaultTTLHours
		}
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 100
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	def := DefaultConfig()
	if c.Feeds.ConferenceURL == "" {
		c.Feeds.ConferenceURL = def.Feeds.ConferenceURL
	}
	if c.Feeds.AcceptanceURL == "" {
		c.Feeds.AcceptanceURL = def.Feeds.AcceptanceURL
	}
}

// SnapshotTTLs converts the per-kind hour settings into durations.
func (c *Config) SnapshotTTLs() map[string]time.Duration {
	ttls := make(map[string]time.Duration, len(c.SnapshotTTLHours))
	for kind, hours := range c.SnapshotTTLHours {
		ttls[kind] = time.Duration(hours) * time.Hour
	}
	return ttls
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed, write a
//     default config with 0600 perms, and return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename), ensuring 0600 permissions on the final file.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".confdash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
