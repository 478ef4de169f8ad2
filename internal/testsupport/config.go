package testsupport

import (
	"path/filepath"
	"testing"

	"sebasite/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The record store defaults to the offline driver so nothing leaves the
// process unless a test opts in with WithRecordStore.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.RecordStore.Driver = config.RecordStoreDriverOffline
	cfgVal.Cache.Path = filepath.Join(cfgVal.Paths.DataDir, "cache.json")
	cfgVal.Blob.Dir = filepath.Join(base, "exports")
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRecordStore points the config at a record store driver and base URL
// (or DSN for the postgres driver).
func WithRecordStore(driver, target string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.RecordStore.Driver = driver
		if driver == config.RecordStoreDriverPostgres {
			b.cfg.RecordStore.DSN = target
			return
		}
		b.cfg.RecordStore.BaseURL = target
		b.cfg.RecordStore.APIKey = "test-key"
	}
}

// WithCacheDriver switches the local cache driver and its file name.
func WithCacheDriver(driver string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Driver = driver
		name := "cache.json"
		if driver == config.CacheDriverSQLite {
			name = "cache.db"
		}
		b.cfg.Cache.Path = filepath.Join(b.cfg.Paths.DataDir, name)
	}
}

// WithAdmin sets the admin password and optional API token.
func WithAdmin(password, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Admin.Password = password
		b.cfg.Admin.APIToken = token
	}
}
