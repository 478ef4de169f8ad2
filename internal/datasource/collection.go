package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"sebasite/internal/localcache"
	"sebasite/internal/logging"
	"sebasite/internal/records"
	"sebasite/internal/recordstore"
	"sebasite/internal/services"
)

// Source identifies where a listing came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Listing is the outcome of a List call. RemoteErr holds the remote failure
// when Source is SourceLocal.
type Listing[T any] struct {
	Records   []T
	Source    Source
	RemoteErr error
}

// Collection reads and writes one record collection with local fallback.
// The cache key shares the collection name.
type Collection[T any] struct {
	table  recordstore.Table[T]
	cache  localcache.Store
	key    string
	query  recordstore.Query
	logger *slog.Logger
}

// NewCollection binds collection on backend, falling back to cache. query
// shapes remote reads.
func NewCollection[T any](backend recordstore.Backend, cache localcache.Store, collection string, query recordstore.Query, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Collection[T]{
		table:  recordstore.NewTable[T](backend, collection),
		cache:  cache,
		key:    collection,
		query:  query,
		logger: logging.NewComponentLogger(logger, "datasource"),
	}
}

// Projects returns the projects collection ordered newest first.
func Projects(backend recordstore.Backend, cache localcache.Store, logger *slog.Logger) *Collection[records.Project] {
	return NewCollection[records.Project](backend, cache, records.CollectionProjects, recordstore.NewestFirst(0), logger)
}

// News returns the news collection ordered newest first, capped at limit
// (zero for all).
func News(backend recordstore.Backend, cache localcache.Store, limit int, logger *slog.Logger) *Collection[records.News] {
	return NewCollection[records.News](backend, cache, records.CollectionNews, recordstore.NewestFirst(limit), logger)
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.key }

// WithLimit returns a copy of c whose remote reads are capped at limit.
func (c *Collection[T]) WithLimit(limit int) *Collection[T] {
	clone := *c
	clone.query.Limit = limit
	return &clone
}

// List reads the remote collection. On any remote failure the failure is
// logged and the cached copy is returned instead; a missing or malformed
// cache yields an empty slice. List never fails.
func (c *Collection[T]) List(ctx context.Context) Listing[T] {
	ctx = services.WithOperation(services.WithCollection(ctx, c.key), "list")
	remote := c.Remote(ctx)
	if rows, err := remote.Value(); err == nil {
		return Listing[T]{Records: rows, Source: SourceRemote}
	}

	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "record store read failed; serving local cache", "remote_read_failed",
		logging.Error(remote.Err()),
		logging.String(logging.FieldErrorHint, "check record_store settings and connectivity"),
		logging.String(logging.FieldImpact, "visitors see the last locally saved records"))

	return Listing[T]{Records: c.Cached(ctx), Source: SourceLocal, RemoteErr: remote.Err()}
}

// Remote reads the remote collection only.
func (c *Collection[T]) Remote(ctx context.Context) Result[[]T] {
	rows, err := c.table.List(ctx, c.query)
	if err != nil {
		return Fail[[]T](err)
	}
	return Ok(rows)
}

// Cached decodes the cached copy of the collection.
func (c *Collection[T]) Cached(ctx context.Context) []T {
	ctx = services.WithCollection(ctx, c.key)
	raw, ok, err := c.cache.Get(ctx, c.key)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "local cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "collection served empty"))
		return []T{}
	}
	if !ok {
		return []T{}
	}
	list, err := DecodeList[T](raw)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "cached collection is malformed", "cache_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the next save overwrites the cached copy"),
			logging.String(logging.FieldImpact, "collection served empty"))
		return []T{}
	}
	return list
}

// Mirror replaces the cached copy with list.
func (c *Collection[T]) Mirror(ctx context.Context, list []T) error {
	if list == nil {
		list = []T{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.cache.Set(ctx, c.key, string(data)); err != nil {
		return fmt.Errorf("mirror %s: %w", c.key, err)
	}
	return nil
}

// Amend applies change to the cached copy while holding the cache's write
// lock and stores the result, so processes sharing the cache keep each
// other's records. A malformed cached copy is treated as empty. The stored
// list is returned.
func (c *Collection[T]) Amend(ctx context.Context, change func([]T) []T) ([]T, error) {
	var stored []T
	err := c.cache.Update(ctx, c.key, func(raw string, ok bool) (string, error) {
		current := []T{}
		if ok {
			if list, err := DecodeList[T](raw); err == nil {
				current = list
			}
		}
		stored = change(current)
		if stored == nil {
			stored = []T{}
		}
		data, err := json.Marshal(stored)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", c.key, err)
		}
		return string(data), nil
	})
	if err != nil {
		return nil, fmt.Errorf("amend %s: %w", c.key, err)
	}
	return stored, nil
}

// Create inserts rec remotely.
func (c *Collection[T]) Create(ctx context.Context, rec T) Result[T] {
	created, err := c.table.Create(ctx, rec)
	if err != nil {
		return Fail[T](err)
	}
	return Ok(created)
}

// Update patches the remote record with id.
func (c *Collection[T]) Update(ctx context.Context, id records.ID, rec T) Result[T] {
	updated, err := c.table.Update(ctx, id, rec)
	if err != nil {
		return Fail[T](err)
	}
	return Ok(updated)
}

// Delete removes the remote record with id.
func (c *Collection[T]) Delete(ctx context.Context, id records.ID) Result[records.ID] {
	if err := c.table.Delete(ctx, id); err != nil {
		return Fail[records.ID](err)
	}
	return Ok(id)
}

// DecodeList parses a cached JSON array. Anything other than an array of
// objects is an error.
func DecodeList[T any](raw string) ([]T, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []T{}, nil
	}
	if !strings.HasPrefix(raw, "[") {
		return nil, fmt.Errorf("cached value is not a JSON array")
	}
	var list []T
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("parse cached array: %w", err)
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}
