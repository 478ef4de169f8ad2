package localcache_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sebasite/internal/config"
	"sebasite/internal/localcache"
	"sebasite/internal/testsupport"
)

type opener func(t *testing.T, path string) localcache.Store

func drivers() map[string]struct {
	file string
	open opener
} {
	return map[string]struct {
		file string
		open opener
	}{
		"json": {"cache.json", func(t *testing.T, path string) localcache.Store {
			return localcache.NewJSONStore(path, nil)
		}},
		"sqlite": {"cache.db", func(t *testing.T, path string) localcache.Store {
			t.Helper()
			store, err := localcache.OpenSQLite(path)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return store
		}},
	}
}

func TestStoreRoundTripsValuesExactly(t *testing.T) {
	ctx := context.Background()
	for name, driver := range drivers() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", driver.file)
			store := driver.open(t, path)
			defer store.Close()

			values := map[string]string{
				localcache.KeyProjects:           `[{"id":1,"title":"A"}]`,
				localcache.KeyLanguage:           "tr",
				localcache.KeyAdminAuthenticated: "true",
				"odd":                            "line1\nline2 \"quoted\" ünicode ",
			}
			for key, value := range values {
				if err := store.Set(ctx, key, value); err != nil {
					t.Fatalf("Set %s: %v", key, err)
				}
			}
			for key, want := range values {
				got, ok, err := store.Get(ctx, key)
				if err != nil || !ok {
					t.Fatalf("Get %s: ok=%v err=%v", key, ok, err)
				}
				if got != want {
					t.Fatalf("Get %s = %q, want %q", key, got, want)
				}
			}

			keys, err := store.Keys(ctx)
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}
			want := []string{localcache.KeyAdminAuthenticated, localcache.KeyLanguage, "odd", localcache.KeyProjects}
			if diff := cmp.Diff(want, keys); diff != "" {
				t.Fatalf("keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreMissingAndDeletedKeys(t *testing.T) {
	ctx := context.Background()
	for name, driver := range drivers() {
		t.Run(name, func(t *testing.T) {
			store := driver.open(t, filepath.Join(t.TempDir(), driver.file))
			defer store.Close()

			if _, ok, err := store.Get(ctx, localcache.KeyNews); err != nil || ok {
				t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
			}
			if err := store.Set(ctx, localcache.KeyNews, "[]"); err != nil {
				t.Fatal(err)
			}
			if err := store.Delete(ctx, localcache.KeyNews); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := store.Get(ctx, localcache.KeyNews); ok {
				t.Fatal("expected key to be deleted")
			}
			if err := store.Delete(ctx, "never-set"); err != nil {
				t.Fatalf("deleting an absent key should succeed: %v", err)
			}
			if err := store.Set(ctx, "  ", "x"); err == nil {
				t.Fatal("expected error for empty key")
			}
		})
	}
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	for name, driver := range drivers() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), driver.file)
			first := driver.open(t, path)
			if err := first.Set(ctx, localcache.KeyLanguage, "en"); err != nil {
				t.Fatal(err)
			}
			if err := first.Close(); err != nil {
				t.Fatal(err)
			}

			second := driver.open(t, path)
			defer second.Close()
			got, ok, err := second.Get(ctx, localcache.KeyLanguage)
			if err != nil || !ok || got != "en" {
				t.Fatalf("expected persisted language, got %q ok=%v err=%v", got, ok, err)
			}
		})
	}
}

func TestJSONStoreSeesWritesFromAnotherInstance(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	daemonSide := localcache.NewJSONStore(path, nil)
	cliSide := localcache.NewJSONStore(path, nil)
	defer daemonSide.Close()
	defer cliSide.Close()

	if err := cliSide.Set(ctx, localcache.KeyAdminAuthenticated, "true"); err != nil {
		t.Fatal(err)
	}
	if got, ok, _ := daemonSide.Get(ctx, localcache.KeyAdminAuthenticated); !ok || got != "true" {
		t.Fatalf("expected shared write, got %q ok=%v", got, ok)
	}
}

func TestStoreUpdateSerializesWritersAcrossInstances(t *testing.T) {
	ctx := context.Background()
	for name, driver := range drivers() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), driver.file)
			first := driver.open(t, path)
			second := driver.open(t, path)
			defer first.Close()
			defer second.Close()

			increment := func(value string, ok bool) (string, error) {
				n := 0
				if ok {
					var err error
					if n, err = strconv.Atoi(value); err != nil {
						return "", err
					}
				}
				return strconv.Itoa(n + 1), nil
			}

			const perWriter = 15
			var wg sync.WaitGroup
			errs := make(chan error, 2*perWriter)
			for _, store := range []localcache.Store{first, second} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range perWriter {
						if err := store.Update(ctx, "counter", increment); err != nil {
							errs <- err
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("Update: %v", err)
			}

			got, _, err := first.Get(ctx, "counter")
			if err != nil {
				t.Fatal(err)
			}
			if got != strconv.Itoa(2*perWriter) {
				t.Fatalf("counter = %s, want %d", got, 2*perWriter)
			}
		})
	}
}

func TestStoreUpdateAbortsOnApplyError(t *testing.T) {
	ctx := context.Background()
	for name, driver := range drivers() {
		t.Run(name, func(t *testing.T) {
			store := driver.open(t, filepath.Join(t.TempDir(), driver.file))
			defer store.Close()
			if err := store.Set(ctx, localcache.KeyLanguage, "tr"); err != nil {
				t.Fatal(err)
			}

			boom := errors.New("boom")
			err := store.Update(ctx, localcache.KeyLanguage, func(string, bool) (string, error) {
				return "", boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected apply error, got %v", err)
			}
			if got, _, _ := store.Get(ctx, localcache.KeyLanguage); got != "tr" {
				t.Fatalf("value changed to %q after aborted update", got)
			}
		})
	}
}

func TestJSONStoreTreatsMalformedFileAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := localcache.NewJSONStore(path, logger)
	defer store.Close()

	if _, ok, err := store.Get(ctx, localcache.KeyProjects); err != nil || ok {
		t.Fatalf("expected empty cache, ok=%v err=%v", ok, err)
	}
	if !strings.Contains(buf.String(), "localcache_load_failed") {
		t.Fatalf("expected load warning, got %q", buf.String())
	}

	if err := store.Set(ctx, localcache.KeyLanguage, "tr"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"language": "tr"`) {
		t.Fatalf("expected repaired file, got %s", data)
	}
}

func TestOpenSelectsDriverFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCacheDriver(config.CacheDriverSQLite))
	store, err := localcache.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*localcache.SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}

	cfg.Cache.Driver = "memcached"
	if _, err := localcache.Open(cfg, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
