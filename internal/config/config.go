package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// RecordStore contains configuration for the hosted record store.
type RecordStore struct {
	Driver         string `toml:"driver"` // rest, postgres, or offline
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	DSN            string `toml:"dsn"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	NewsLimit      int    `toml:"news_limit"`
}

// Cache contains configuration for the local fallback cache.
type Cache struct {
	Driver string `toml:"driver"` // json or sqlite
	Path   string `toml:"path"`
}

// Images contains configuration for the image ingestion pipeline.
type Images struct {
	MaxDimension int     `toml:"max_dimension"`
	Quality      float64 `toml:"quality"`
	MaxUploadMiB int     `toml:"max_upload_mib"`
	Workers      int     `toml:"workers"`
}

// Gallery contains configuration for the randomized gallery sample.
type Gallery struct {
	SampleSize int `toml:"sample_size"`
}

// Ticker contains configuration for the news ticker animation.
type Ticker struct {
	SecondsPerItem int `toml:"seconds_per_item"`
}

// Site contains public site settings.
type Site struct {
	DefaultLanguage string `toml:"default_language"`
}

// Admin contains configuration for the admin gate.
type Admin struct {
	Password string `toml:"password"`
	APIToken string `toml:"api_token"`
}

// Contact contains configuration for relaying contact form submissions via ntfy.
type Contact struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Blob contains configuration for the image export blob store.
type Blob struct {
	Driver    string `toml:"driver"` // fs or s3
	Dir       string `toml:"dir"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	PathStyle bool   `toml:"path_style"`

	// Static credentials; the default AWS credential chain is used when empty.
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for sebasite.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - RecordStore: hosted projects/news backend (REST or Postgres)
//   - Cache: local fallback cache driver and location
//   - Images: resize bound, JPEG quality, upload limits
//   - Gallery, Ticker, Site: public view-model tuning
//   - Admin: shared secret and optional API token
//   - Contact: ntfy relay for the contact form
//   - Blob: image export target (filesystem or S3)
//   - Metrics, Logging: observability
type Config struct {
	Paths       Paths       `toml:"paths"`
	RecordStore RecordStore `toml:"record_store"`
	Cache       Cache       `toml:"cache"`
	Images      Images      `toml:"images"`
	Gallery     Gallery     `toml:"gallery"`
	Ticker      Ticker      `toml:"ticker"`
	Site        Site        `toml:"site"`
	Admin       Admin       `toml:"admin"`
	Contact     Contact     `toml:"contact"`
	Blob        Blob        `toml:"blob"`
	Metrics     Metrics     `toml:"metrics"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sebasite.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories plus the parent of
// the cache file. The blob directory is created only for the fs driver.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Cache.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.Cache.Path))
	}
	if c.Blob.Driver == BlobDriverFS && strings.TrimSpace(c.Blob.Dir) != "" {
		dirs = append(dirs, c.Blob.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RecordStoreTimeout returns the per-request record store timeout.
func (c *Config) RecordStoreTimeout() time.Duration {
	return time.Duration(c.RecordStore.TimeoutSeconds) * time.Second
}

// ContactTimeout returns the contact relay request timeout.
func (c *Config) ContactTimeout() time.Duration {
	return time.Duration(c.Contact.RequestTimeout) * time.Second
}

// TickerItemDuration returns the animation time allotted to each ticker item.
func (c *Config) TickerItemDuration() time.Duration {
	return time.Duration(c.Ticker.SecondsPerItem) * time.Second
}

// MaxUploadBytes returns the per-file upload size limit for the image pipeline.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Images.MaxUploadMiB) << 20
}

// LockPath returns the single-instance lock file used by the service.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "sebasited.lock")
}

// LogPath returns the primary log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "sebasite.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "sebasite")
	}
	return "~/.local/share/sebasite"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
