package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sebasite/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_DATA_HOME", "")
	for _, key := range []string{
		"SEBASITE_RECORD_STORE_URL",
		"SEBASITE_RECORD_STORE_API_KEY",
		"SEBASITE_RECORD_STORE_DSN",
		"DATABASE_URL",
		"SEBASITE_ADMIN_PASSWORD",
		"SEBASITE_ADMIN_API_TOKEN",
		"SEBASITE_CONTACT_NTFY_TOPIC",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return tempHome
}

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	tempHome := isolateEnv(t)
	t.Setenv("SEBASITE_RECORD_STORE_URL", "https://example.supabase.co/")
	t.Setenv("SEBASITE_RECORD_STORE_API_KEY", "anon-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "sebasite")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Cache.Path != filepath.Join(wantData, "cache.json") {
		t.Fatalf("unexpected cache path: %q", cfg.Cache.Path)
	}
	if cfg.RecordStore.BaseURL != "https://example.supabase.co" {
		t.Fatalf("expected trailing slash trimmed from env url, got %q", cfg.RecordStore.BaseURL)
	}
	if cfg.RecordStore.APIKey != "anon-key" {
		t.Fatalf("expected api key from env, got %q", cfg.RecordStore.APIKey)
	}
	if cfg.Images.MaxDimension != 1920 {
		t.Fatalf("unexpected max dimension: %d", cfg.Images.MaxDimension)
	}
	if cfg.Images.Quality != 0.7 {
		t.Fatalf("unexpected quality: %v", cfg.Images.Quality)
	}
	if cfg.Gallery.SampleSize != 6 {
		t.Fatalf("unexpected gallery sample size: %d", cfg.Gallery.SampleSize)
	}
	if cfg.RecordStore.NewsLimit != 6 {
		t.Fatalf("unexpected news limit: %d", cfg.RecordStore.NewsLimit)
	}
	if cfg.Site.DefaultLanguage != "tr" {
		t.Fatalf("unexpected default language: %q", cfg.Site.DefaultLanguage)
	}
	if cfg.Admin.Password != "admin123" {
		t.Fatalf("unexpected admin password default: %q", cfg.Admin.Password)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Blob.Dir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadRequiresRecordStoreURLForRESTDriver(t *testing.T) {
	isolateEnv(t)
	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error when rest driver has no base url")
	}
	if !strings.Contains(err.Error(), "record_store.base_url") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sebasite.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		RecordStore struct {
			Driver string `toml:"driver"`
			DSN    string `toml:"dsn"`
		} `toml:"record_store"`
		Cache struct {
			Driver string `toml:"driver"`
		} `toml:"cache"`
		Images struct {
			MaxDimension int     `toml:"max_dimension"`
			Quality      float64 `toml:"quality"`
		} `toml:"images"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.RecordStore.Driver = "Postgres"
	custom.RecordStore.DSN = "postgres://localhost/seba"
	custom.Cache.Driver = "sqlite"
	custom.Images.MaxDimension = 1280
	custom.Images.Quality = 0.85
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.RecordStore.Driver != config.RecordStoreDriverPostgres {
		t.Fatalf("expected driver to be lowercased, got %q", cfg.RecordStore.Driver)
	}
	if cfg.Cache.Path != filepath.Join(tempDir, "data", "cache.db") {
		t.Fatalf("expected sqlite cache path under data dir, got %q", cfg.Cache.Path)
	}
	if cfg.Images.MaxDimension != 1280 || cfg.Images.Quality != 0.85 {
		t.Fatalf("unexpected image settings: %+v", cfg.Images)
	}
}

func TestFileValuesWinOverEnvFallbacks(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "sebasite.toml")
	contents := `
[record_store]
driver = "rest"
base_url = "https://file.example.com"
api_key = "file-key"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SEBASITE_RECORD_STORE_API_KEY", "env-key")
	t.Setenv("SEBASITE_ADMIN_PASSWORD", "env-secret")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RecordStore.APIKey != "file-key" {
		t.Errorf("expected file api key to win, got %q", cfg.RecordStore.APIKey)
	}
	if cfg.Admin.Password != "env-secret" {
		t.Errorf("expected admin password from env, got %q", cfg.Admin.Password)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_record_store_api_key_here") {
		t.Fatalf("sample config missing placeholder api key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "sebasite") {
		t.Fatalf("expected data dir to contain sebasite, got %q", cfg.Paths.DataDir)
	}
	if cfg.Images.MaxDimension != 1920 {
		t.Fatalf("unexpected sample max dimension: %d", cfg.Images.MaxDimension)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.RecordStore.Driver = config.RecordStoreDriverOffline
		cfg.Cache.Path = "/tmp/cache.json"
		cfg.Blob.Dir = "/tmp/exports"
		return cfg
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected baseline config to validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown record store driver", func(c *config.Config) { c.RecordStore.Driver = "mysql" }},
		{"postgres without dsn", func(c *config.Config) { c.RecordStore.Driver = config.RecordStoreDriverPostgres }},
		{"rest url without scheme", func(c *config.Config) {
			c.RecordStore.Driver = config.RecordStoreDriverREST
			c.RecordStore.BaseURL = "example.com"
		}},
		{"unknown cache driver", func(c *config.Config) { c.Cache.Driver = "redis" }},
		{"zero quality", func(c *config.Config) { c.Images.Quality = 0 }},
		{"quality above one", func(c *config.Config) { c.Images.Quality = 1.5 }},
		{"negative dimension", func(c *config.Config) { c.Images.MaxDimension = -1 }},
		{"unsupported language", func(c *config.Config) { c.Site.DefaultLanguage = "de" }},
		{"s3 without bucket", func(c *config.Config) { c.Blob.Driver = config.BlobDriverS3 }},
		{"zero ticker seconds", func(c *config.Config) { c.Ticker.SecondsPerItem = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
