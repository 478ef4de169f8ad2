package recordstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sebasite/internal/records"
	"sebasite/internal/recordstore"
	"sebasite/internal/services"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Prefer string
	APIKey string
	Auth   string
	Body   string
}

type fakePostgREST struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Prefer: r.Header.Get("Prefer"),
		APIKey: r.Header.Get("apikey"),
		Auth:   r.Header.Get("Authorization"),
		Body:   string(data),
	})
	status, body := f.status, f.body
	f.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakePostgREST) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakePostgREST) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

func newREST(t *testing.T, fake *fakePostgREST) *recordstore.REST {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	client, err := recordstore.NewREST(server.URL+"/", "anon-key")
	if err != nil {
		t.Fatalf("NewREST returned error: %v", err)
	}
	return client
}

func TestNewRESTRequiresBaseURL(t *testing.T) {
	_, err := recordstore.NewREST(" ", "key")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSelectSendsPostgRESTQuery(t *testing.T) {
	fake := &fakePostgREST{body: `[{"id":2,"title":"B"},{"id":1,"title":"A"}]`}
	client := newREST(t, fake)

	rows, err := client.Select(context.Background(), "news", recordstore.NewestFirst(6))
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	req := fake.last(t)
	want := recordedRequest{
		Method: http.MethodGet,
		Path:   "/rest/v1/news",
		Query:  "limit=6&order=created_at.desc&select=%2A",
		APIKey: "anon-key",
		Auth:   "Bearer anon-key",
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestTableCreateReturnsCanonicalRecord(t *testing.T) {
	fake := &fakePostgREST{status: http.StatusCreated, body: `[{"id":42,"title":"Bridge","images":["a"],"image":"a","created_at":"2024-05-01T00:00:00Z"}]`}
	table := recordstore.NewTable[records.Project](newREST(t, fake), records.CollectionProjects)

	created, err := table.Create(context.Background(), records.Project{Title: "Bridge", Images: []string{"a"}}.WithCompatImage())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "42" || created.CreatedAt == "" {
		t.Fatalf("unexpected created record %+v", created)
	}

	req := fake.last(t)
	if req.Method != http.MethodPost || req.Prefer != "return=representation" {
		t.Fatalf("unexpected request %+v", req)
	}
	var sent []map[string]any
	if err := json.Unmarshal([]byte(req.Body), &sent); err != nil {
		t.Fatalf("body is not an array: %v (%s)", err, req.Body)
	}
	if len(sent) != 1 || sent[0]["image"] != "a" {
		t.Fatalf("unexpected body %s", req.Body)
	}
	if _, ok := sent[0]["id"]; ok {
		t.Fatalf("new records must not carry an id: %s", req.Body)
	}
}

func TestUpdateAndDeleteFilterByID(t *testing.T) {
	fake := &fakePostgREST{body: `[{"id":7,"title":"Renamed"}]`}
	table := recordstore.NewTable[records.News](newREST(t, fake), records.CollectionNews)

	updated, err := table.Update(context.Background(), "7", records.News{ID: "7", Title: "Renamed"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if req := fake.last(t); req.Method != http.MethodPatch || req.Query != "id=eq.7" {
		t.Fatalf("unexpected update request %+v", req)
	}

	fake.respond(http.StatusNoContent, "")
	if err := table.Delete(context.Background(), "7"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if req := fake.last(t); req.Method != http.MethodDelete || req.Query != "id=eq.7" {
		t.Fatalf("unexpected delete request %+v", req)
	}
}

func TestUpdateWithoutReturnedRowIsNotFound(t *testing.T) {
	fake := &fakePostgREST{body: `[]`}
	client := newREST(t, fake)

	_, err := client.Update(context.Background(), "projects", "99", json.RawMessage(`{"title":"x"}`))
	if !errors.Is(err, services.ErrRemoteUnavailable) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected remote+not found error, got %v", err)
	}
}

func TestErrorStatusIsRemoteUnavailable(t *testing.T) {
	fake := &fakePostgREST{status: http.StatusUnauthorized, body: `{"message":"Invalid API key"}`}
	client := newREST(t, fake)

	_, err := client.Select(context.Background(), "projects", recordstore.NewestFirst(0))
	if !errors.Is(err, services.ErrRemoteUnavailable) {
		t.Fatalf("expected remote unavailable, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "Invalid API key") {
		t.Fatalf("expected server message in error, got %q", got)
	}
}

func TestMalformedResponseIsRemoteUnavailable(t *testing.T) {
	fake := &fakePostgREST{body: `{"not":"an array"}`}
	client := newREST(t, fake)
	if _, err := client.Select(context.Background(), "projects", recordstore.Query{}); !errors.Is(err, services.ErrRemoteUnavailable) {
		t.Fatalf("expected remote unavailable, got %v", err)
	}
}

func TestTransportFailureIsRemoteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := recordstore.NewREST(url, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Ping(context.Background()); !errors.Is(err, services.ErrRemoteUnavailable) {
		t.Fatalf("expected remote unavailable, got %v", err)
	}
}

func TestInvalidCollectionIsRejected(t *testing.T) {
	client := newREST(t, &fakePostgREST{body: `[]`})
	if _, err := client.Select(context.Background(), "projects;drop", recordstore.Query{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
