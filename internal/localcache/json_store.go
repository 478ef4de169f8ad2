package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"sebasite/internal/fileutil"
	"sebasite/internal/logging"
)

const lockRetryDelay = 25 * time.Millisecond

// JSONStore keeps every key in one JSON object file. Each operation re-reads
// the file under the lock so concurrent processes observe each other's writes.
type JSONStore struct {
	path   string
	logger *slog.Logger
	lock   *flock.Flock
	mu     sync.Mutex
}

// NewJSONStore creates a store backed by path. The file is created lazily on
// the first write.
func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &JSONStore{
		path:   path,
		logger: logging.NewComponentLogger(logger, "localcache"),
		lock:   flock.New(path + ".lock"),
	}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Get(ctx context.Context, key string) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, errors.New("cache key cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rlock(ctx); err != nil {
		return "", false, err
	}
	defer s.unlock()

	entries := s.load()
	value, ok := entries[key]
	return value, ok, nil
}

func (s *JSONStore) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}
	return s.mutate(ctx, func(entries map[string]string) bool {
		entries[key] = value
		return true
	})
}

func (s *JSONStore) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}
	return s.mutate(ctx, func(entries map[string]string) bool {
		if _, ok := entries[key]; !ok {
			return false
		}
		delete(entries, key)
		return true
	})
}

func (s *JSONStore) Update(ctx context.Context, key string, apply func(string, bool) (string, error)) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}
	var applyErr error
	err := s.mutate(ctx, func(entries map[string]string) bool {
		current, ok := entries[key]
		next, err := apply(current, ok)
		if err != nil {
			applyErr = err
			return false
		}
		entries[key] = next
		return true
	})
	if applyErr != nil {
		return applyErr
	}
	return err
}

func (s *JSONStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rlock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	entries := s.load()
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases the file lock if still held.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Close()
}

func (s *JSONStore) mutate(ctx context.Context, apply func(map[string]string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wlock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	entries := s.load()
	if !apply(entries) {
		return nil
	}
	return s.save(entries)
}

func (s *JSONStore) rlock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire cache read lock: %w", err)
	}
	if !locked {
		return errors.New("acquire cache read lock: not acquired")
	}
	return nil
}

func (s *JSONStore) wlock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire cache write lock: %w", err)
	}
	if !locked {
		return errors.New("acquire cache write lock: not acquired")
	}
	return nil
}

func (s *JSONStore) unlock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Debug("cache unlock failed", logging.Error(err))
	}
}

// load reads the cache file. A missing file is empty; an unreadable or
// malformed one is logged and treated as empty so the next write repairs it.
func (s *JSONStore) load() map[string]string {
	entries := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.warnLoad(fmt.Errorf("read cache file: %w", err))
		}
		return entries
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		s.warnLoad(fmt.Errorf("parse cache file: %w", err))
		return make(map[string]string)
	}
	return entries
}

func (s *JSONStore) warnLoad(err error) {
	s.logger.Warn("failed to load local cache",
		logging.String(logging.FieldEventType, "localcache_load_failed"),
		logging.Error(err),
		logging.String("path", s.path),
		logging.String(logging.FieldErrorHint, "cache will start empty"),
		logging.String(logging.FieldImpact, "fallback data and saved preferences are unavailable until the next write"))
}

func (s *JSONStore) save(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	s.logger.Debug("persisted local cache",
		logging.Int("key_count", len(entries)),
		logging.String("path", s.path))
	return nil
}
