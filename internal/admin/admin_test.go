package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sebasite/internal/admin"
	"sebasite/internal/datasource"
	"sebasite/internal/imaging"
	"sebasite/internal/localcache"
	"sebasite/internal/records"
	"sebasite/internal/recordstore"
	"sebasite/internal/services"
	"sebasite/internal/testsupport"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	backend *testsupport.MemoryRecordStore
	cache   localcache.Store
	logs    *bytes.Buffer
	ctrl    *admin.Controller
	writes  *recordingObserver
}

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) WriteCompleted(kind admin.Kind, action admin.Action, degraded bool) {
	entry := string(kind) + "/" + string(action)
	if degraded {
		entry += "/degraded"
	}
	r.calls = append(r.calls, entry)
}

func newHarness(t *testing.T, backend recordstore.Backend) *harness {
	t.Helper()
	mem, _ := backend.(*testsupport.MemoryRecordStore)
	cache := localcache.NewJSONStore(filepath.Join(t.TempDir(), "cache.json"), nil)
	t.Cleanup(func() { _ = cache.Close() })

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	observer := &recordingObserver{}
	ctrl := admin.New(
		datasource.Projects(backend, cache, logger),
		datasource.News(backend, cache, 0, logger),
		admin.Options{
			Images:   imaging.Options{MaxDimension: 64, Quality: 0.7},
			Workers:  2,
			Observer: observer,
			Logger:   logger,
			Now:      func() time.Time { return fixedNow },
		},
	)
	t.Cleanup(ctrl.Close)
	return &harness{backend: mem, cache: cache, logs: &buf, ctrl: ctrl, writes: observer}
}

func fillProject(t *testing.T, ctrl *admin.Controller, title string) {
	t.Helper()
	ctx := context.Background()
	draft := ctrl.BeginCreate(admin.KindProject)
	if draft.Project.Category != records.DefaultCategory || draft.Project.Year != "2024" {
		t.Fatalf("unexpected draft defaults %+v", draft.Project)
	}
	if _, err := ctrl.SetProjectFields(admin.ProjectFields{
		Title:       title,
		Location:    "Ankara",
		Year:        "2023",
		Description: "Office tower",
		Category:    records.Category("commercial"),
	}); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	files := []imaging.File{imaging.BytesFile("a.png", testsupport.PNG(t, 32, 16))}
	if _, failures, err := ctrl.AddImages(ctx, admin.KindProject, files); err != nil || len(failures) != 0 {
		t.Fatalf("add images: err=%v failures=%v", err, failures)
	}
}

func TestLoadFallsBackToCacheWhenRemoteDown(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, recordstore.Offline{})
	if err := h.cache.Set(ctx, localcache.KeyProjects, `[{"id":1,"title":"A"}]`); err != nil {
		t.Fatal(err)
	}

	projects, news := h.ctrl.Load(ctx)
	if projects != datasource.SourceLocal || news != datasource.SourceLocal {
		t.Fatalf("expected local sources, got %s %s", projects, news)
	}
	want := []records.Project{{ID: "1", Title: "A"}}
	if diff := cmp.Diff(want, h.ctrl.Projects()); diff != "" {
		t.Fatalf("projects mismatch (-want +got):\n%s", diff)
	}
	if got := h.ctrl.News(); len(got) != 0 {
		t.Fatalf("expected no news, got %+v", got)
	}
}

func TestLoadMirrorsRemoteListing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.backend.Seed(records.CollectionNews, `{"id":7,"title":"Opening","content":"x","date":"2024-01-02"}`)

	if _, news := h.ctrl.Load(ctx); news != datasource.SourceRemote {
		t.Fatalf("expected remote news, got %s", news)
	}
	raw, ok, err := h.cache.Get(ctx, localcache.KeyNews)
	if err != nil || !ok {
		t.Fatalf("expected mirrored news, ok=%v err=%v", ok, err)
	}
	if !strings.Contains(raw, `"Opening"`) {
		t.Fatalf("unexpected cached news %s", raw)
	}
}

func TestSubmitCreatesProjectRemotely(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.ctrl.Load(ctx)
	fillProject(t, h.ctrl, "Tower")

	outcome, err := h.ctrl.Submit(ctx, admin.KindProject)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Degraded || outcome.Action != admin.ActionCreate || outcome.MessageKey != admin.MessageAdded {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.ID != "101" {
		t.Fatalf("expected store-assigned id, got %s", outcome.ID)
	}
	p := outcome.Project
	if p.Category != records.CategoryCommercial || len(p.Images) != 1 || p.Image != p.Images[0] {
		t.Fatalf("unexpected saved project %+v", p)
	}
	if !strings.HasPrefix(p.Image, imaging.DataURIPrefix) {
		t.Fatalf("expected jpeg data uri, got %.40s", p.Image)
	}
	if h.backend.Len(records.CollectionProjects) != 1 {
		t.Fatalf("expected one remote row")
	}
	if _, open := h.ctrl.Draft(admin.KindProject); open {
		t.Fatal("expected draft to close after submit")
	}
	if diff := cmp.Diff([]string{"projects/create"}, h.writes.calls); diff != "" {
		t.Fatalf("observer mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitDegradesWhenRemoteDown(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.backend.Seed(records.CollectionProjects, `{"id":5,"title":"Old"}`)
	h.ctrl.Load(ctx)
	h.backend.SetDown(true)
	fillProject(t, h.ctrl, "Tower")

	outcome, err := h.ctrl.Submit(ctx, admin.KindProject)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Degraded || outcome.MessageKey != admin.MessageAdded {
		t.Fatalf("expected degraded success, got %+v", outcome)
	}
	if want := records.ID("1709294400000"); outcome.ID != want {
		t.Fatalf("expected time id %s, got %s", want, outcome.ID)
	}
	if outcome.Project.CreatedAt != "2024-03-01T12:00:00.000Z" {
		t.Fatalf("unexpected created_at %q", outcome.Project.CreatedAt)
	}
	list := h.ctrl.Projects()
	if len(list) != 2 || list[0].Title != "Tower" || list[1].Title != "Old" {
		t.Fatalf("expected new project first, got %+v", list)
	}

	raw, _, err := h.cache.Get(ctx, localcache.KeyProjects)
	if err != nil {
		t.Fatal(err)
	}
	var cached []records.Project
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("decode cache: %v", err)
	}
	if len(cached) != 2 || cached[0].ID != outcome.ID {
		t.Fatalf("expected degraded write mirrored, got %+v", cached)
	}
	if !strings.Contains(h.logs.String(), `"event_type":"degraded_write"`) {
		t.Fatalf("expected degraded_write warning, got %s", h.logs.String())
	}
}

func TestSubmitValidationReportsEveryProblem(t *testing.T) {
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.ctrl.BeginCreate(admin.KindProject)

	_, err := h.ctrl.Submit(context.Background(), admin.KindProject)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, want := range []string{"title", "location", "description", "at least one image"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
	if h.backend.Calls() != 0 {
		t.Fatalf("expected no backend calls, got %d", h.backend.Calls())
	}
	if _, open := h.ctrl.Draft(admin.KindProject); !open {
		t.Fatal("expected draft to stay open")
	}
}

func TestEditLegacyProjectKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.backend.Seed(records.CollectionProjects,
		`{"id":9,"title":"Legacy","location":"Izmir","year":"2010","description":"d","category":"Residential","image":"data:image/jpeg;base64,AAAA","created_at":"2020-01-01T00:00:00.000Z"}`)
	h.ctrl.Load(ctx)

	draft, err := h.ctrl.BeginEdit(admin.KindProject, "9")
	if err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	want := []admin.Preview{{Image: "data:image/jpeg;base64,AAAA"}}
	if diff := cmp.Diff(want, draft.Previews); diff != "" {
		t.Fatalf("previews mismatch (-want +got):\n%s", diff)
	}
	fields := draft.Project
	fields.Title = "Legacy renovated"
	if _, err := h.ctrl.SetProjectFields(fields); err != nil {
		t.Fatal(err)
	}

	outcome, err := h.ctrl.Submit(ctx, admin.KindProject)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Action != admin.ActionUpdate || outcome.ID != "9" || outcome.MessageKey != admin.MessageUpdated {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	p := outcome.Project
	if p.CreatedAt != "2020-01-01T00:00:00.000Z" {
		t.Fatalf("created_at changed: %q", p.CreatedAt)
	}
	if diff := cmp.Diff([]string{"data:image/jpeg;base64,AAAA"}, p.Images); diff != "" {
		t.Fatalf("images mismatch (-want +got):\n%s", diff)
	}
	if list := h.ctrl.Projects(); len(list) != 1 || list[0].Title != "Legacy renovated" {
		t.Fatalf("expected in-place update, got %+v", list)
	}
}

func TestBeginEditUnknownRecord(t *testing.T) {
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	if _, err := h.ctrl.BeginEdit(admin.KindNews, "404"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddImagesReportsUndecodableFiles(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.ctrl.BeginCreate(admin.KindProject)

	files := []imaging.File{
		imaging.BytesFile("one.png", testsupport.PNG(t, 10, 10)),
		imaging.BytesFile("notes.txt", []byte("not an image")),
		imaging.BytesFile("two.png", testsupport.PNG(t, 20, 10)),
	}
	draft, failures, err := h.ctrl.AddImages(ctx, admin.KindProject, files)
	if err != nil {
		t.Fatalf("add images: %v", err)
	}
	if len(failures) != 1 || failures[0].Name != "notes.txt" || !errors.Is(failures[0], services.ErrDecode) {
		t.Fatalf("unexpected failures %v", failures)
	}
	if len(draft.Previews) != 2 || draft.Previews[0].File != "one.png" || draft.Previews[1].File != "two.png" {
		t.Fatalf("unexpected previews %+v", draft.Previews)
	}

	draft, err = h.ctrl.RemoveImage(admin.KindProject, 0)
	if err != nil {
		t.Fatal(err)
	}
	if draft.QueuedFiles() != 1 || draft.Previews[0].File != "two.png" {
		t.Fatalf("unexpected previews after removal %+v", draft.Previews)
	}
	if _, err := h.ctrl.RemoveImage(admin.KindProject, 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewsDraftKeepsSingleImage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	draft := h.ctrl.BeginCreate(admin.KindNews)
	if draft.News.Date != "2024-03-01" {
		t.Fatalf("expected today's date, got %q", draft.News.Date)
	}
	files := []imaging.File{
		imaging.BytesFile("first.png", testsupport.PNG(t, 8, 8)),
		imaging.BytesFile("second.png", testsupport.PNG(t, 8, 8)),
	}
	draft, _, err := h.ctrl.AddImages(ctx, admin.KindNews, files)
	if err != nil {
		t.Fatal(err)
	}
	if len(draft.Previews) != 1 || draft.Previews[0].File != "second.png" {
		t.Fatalf("expected only the last image, got %+v", draft.Previews)
	}
}

func TestDegradedDeleteResurrectsOnNextLoad(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.backend.Seed(records.CollectionNews, `{"id":3,"title":"Keep","content":"c","date":"2024-01-01"}`)
	h.ctrl.Load(ctx)

	h.backend.SetDown(true)
	outcome, err := h.ctrl.Delete(ctx, admin.KindNews, "3")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !outcome.Degraded || outcome.MessageKey != admin.MessageDeleted {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(h.ctrl.News()) != 0 {
		t.Fatalf("expected news removed locally")
	}
	if !strings.Contains(h.logs.String(), `"event_type":"degraded_delete"`) {
		t.Fatalf("expected degraded_delete warning, got %s", h.logs.String())
	}

	h.backend.SetDown(false)
	h.ctrl.Load(ctx)
	if list := h.ctrl.News(); len(list) != 1 || list[0].ID != "3" {
		t.Fatalf("expected record back after remote load, got %+v", list)
	}
	if !strings.Contains(h.logs.String(), `"event_type":"degraded_delete_resurrected"`) {
		t.Fatalf("expected resurrection warning, got %s", h.logs.String())
	}
	if diff := cmp.Diff([]string{"news/delete/degraded"}, h.writes.calls); diff != "" {
		t.Fatalf("observer mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteUnknownRecordIsNotFound(t *testing.T) {
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	if _, err := h.ctrl.Delete(context.Background(), admin.KindProject, "1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// blockingStore holds inserts until release is closed.
type blockingStore struct {
	*testsupport.MemoryRecordStore
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) Insert(ctx context.Context, collection string, record json.RawMessage) (json.RawMessage, error) {
	close(b.started)
	<-b.release
	return b.MemoryRecordStore.Insert(ctx, collection, record)
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		MemoryRecordStore: testsupport.NewMemoryRecordStore(),
		started:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func TestSecondWriteRejectedWhileInFlight(t *testing.T) {
	ctx := context.Background()
	store := newBlockingStore()
	h := newHarness(t, store)
	fillProject(t, h.ctrl, "Tower")

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Submit(ctx, admin.KindProject)
		done <- err
	}()
	<-store.started

	if _, err := h.ctrl.Submit(ctx, admin.KindProject); !errors.Is(err, admin.ErrOperationInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}
	if _, err := h.ctrl.Delete(ctx, admin.KindProject, "1"); !errors.Is(err, admin.ErrOperationInFlight) {
		t.Fatalf("expected in-flight rejection for delete, got %v", err)
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if len(h.ctrl.Projects()) != 1 {
		t.Fatalf("expected exactly one project")
	}
}

func TestCloseDiscardsLateResults(t *testing.T) {
	ctx := context.Background()
	store := newBlockingStore()
	h := newHarness(t, store)
	fillProject(t, h.ctrl, "Tower")

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Submit(ctx, admin.KindProject)
		done <- err
	}()
	<-store.started
	h.ctrl.Close()
	close(store.release)

	if err := <-done; !errors.Is(err, admin.ErrClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if len(h.ctrl.Projects()) != 0 {
		t.Fatalf("expected late result to be discarded")
	}
	if len(h.writes.calls) != 0 {
		t.Fatalf("expected no observer call, got %v", h.writes.calls)
	}
}

func TestWritesAfterCloseReturnErrClosed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.backend.Seed(records.CollectionProjects, `{"id":5,"title":"Old"}`)
	h.ctrl.Load(ctx)
	fillProject(t, h.ctrl, "Tower")
	h.ctrl.Close()

	_, err := h.ctrl.Submit(ctx, admin.KindProject)
	if !errors.Is(err, admin.ErrClosed) || errors.Is(err, services.ErrValidation) {
		t.Fatalf("submit after close: expected ErrClosed only, got %v", err)
	}
	if _, err := h.ctrl.Delete(ctx, admin.KindProject, "5"); !errors.Is(err, admin.ErrClosed) {
		t.Fatalf("delete after close: expected ErrClosed, got %v", err)
	}
}

func TestEmptyDraftEncodesPreviewsAsList(t *testing.T) {
	h := newHarness(t, testsupport.NewMemoryRecordStore())
	h.ctrl.BeginCreate(admin.KindNews)
	draft, ok := h.ctrl.Draft(admin.KindNews)
	if !ok {
		t.Fatal("expected open draft")
	}
	data, err := json.Marshal(draft)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"previews":[]`) {
		t.Fatalf("expected empty previews list, got %s", data)
	}
}

func TestControllersSharingCacheKeepEachOthersWrites(t *testing.T) {
	ctx := context.Background()
	cache := localcache.NewJSONStore(filepath.Join(t.TempDir(), "cache.json"), nil)
	t.Cleanup(func() { _ = cache.Close() })

	newController := func(now time.Time) *admin.Controller {
		ctrl := admin.New(
			datasource.Projects(recordstore.Offline{}, cache, nil),
			datasource.News(recordstore.Offline{}, cache, 0, nil),
			admin.Options{Workers: 1, Now: func() time.Time { return now }},
		)
		t.Cleanup(ctrl.Close)
		return ctrl
	}
	cli := newController(fixedNow)
	daemon := newController(fixedNow.Add(time.Second))
	cli.Load(ctx)
	daemon.Load(ctx)

	submit := func(ctrl *admin.Controller, title string) records.ID {
		t.Helper()
		ctrl.BeginCreate(admin.KindNews)
		if _, err := ctrl.SetNewsFields(admin.NewsFields{Title: title, Content: "body", Date: "2024-03-01"}); err != nil {
			t.Fatal(err)
		}
		outcome, err := ctrl.Submit(ctx, admin.KindNews)
		if err != nil || !outcome.Degraded {
			t.Fatalf("submit %q: outcome=%+v err=%v", title, outcome, err)
		}
		return outcome.ID
	}
	fromCLI := submit(cli, "From CLI")
	submit(daemon, "From daemon")

	cachedTitles := func() []string {
		t.Helper()
		raw, _, err := cache.Get(ctx, localcache.KeyNews)
		if err != nil {
			t.Fatal(err)
		}
		var cached []records.News
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			t.Fatalf("decode cache: %v", err)
		}
		titles := make([]string, 0, len(cached))
		for _, n := range cached {
			titles = append(titles, n.Title)
		}
		return titles
	}
	if diff := cmp.Diff([]string{"From daemon", "From CLI"}, cachedTitles()); diff != "" {
		t.Fatalf("cached news mismatch (-want +got):\n%s", diff)
	}

	// Deleting through one controller removes only that record.
	cli.Load(ctx)
	if _, err := cli.Delete(ctx, admin.KindNews, fromCLI); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if diff := cmp.Diff([]string{"From daemon"}, cachedTitles()); diff != "" {
		t.Fatalf("cached news after delete (-want +got):\n%s", diff)
	}
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]admin.Kind{"projects": admin.KindProject, "Project": admin.KindProject, " news ": admin.KindNews} {
		got, err := admin.ParseKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := admin.ParseKind("users"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
