package localcache

import (
	"context"
	"fmt"
	"log/slog"

	"sebasite/internal/config"
)

// Well-known keys.
const (
	KeyProjects           = "projects"
	KeyNews               = "news"
	KeyLanguage           = "language"
	KeyAdminAuthenticated = "adminAuthenticated"
)

// Store is a durable string key/value store. Values round-trip exactly.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Update replaces key with apply's result while holding the store's write
	// lock, so concurrent writers in other processes cannot interleave between
	// the read and the write. An error from apply aborts without writing.
	Update(ctx context.Context, key string, apply func(value string, ok bool) (string, error)) error
	// Keys lists stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Open returns the store selected by cfg.Cache.Driver.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Cache.Driver {
	case config.CacheDriverJSON:
		return NewJSONStore(cfg.Cache.Path, logger), nil
	case config.CacheDriverSQLite:
		return OpenSQLite(cfg.Cache.Path)
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
}
