package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sebasite/internal/logging"
	"sebasite/internal/services"
)

const maxErrorBody = 4096

// REST talks to a PostgREST endpoint (for example a hosted Supabase project).
type REST struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Backend = (*REST)(nil)

// RESTOption configures a REST backend.
type RESTOption func(*REST)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) RESTOption {
	return func(r *REST) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) RESTOption {
	return func(r *REST) {
		if timeout > 0 {
			r.httpClient.Timeout = timeout
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) RESTOption {
	return func(r *REST) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewREST creates a REST backend rooted at baseURL.
func NewREST(baseURL, apiKey string, opts ...RESTOption) (*REST, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "recordstore", "open", "record store base url required", nil)
	}
	client := &REST{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "recordstore")
	return client, nil
}

func (r *REST) Name() string { return "rest" }

func (r *REST) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}

func (r *REST) Select(ctx context.Context, collection string, q Query) ([]json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if err := checkOrderBy(q.OrderBy); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("select", "*")
	if q.OrderBy != "" {
		direction := "asc"
		if q.Descending {
			direction = "desc"
		}
		params.Set("order", q.OrderBy+"."+direction)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	rows, err := r.do(ctx, http.MethodGet, collection, params, nil)
	if err != nil {
		return nil, remoteErr("select", collection, err)
	}
	return rows, nil
}

func (r *REST) Insert(ctx context.Context, collection string, record json.RawMessage) (json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	// PostgREST accepts an array and returns one.
	body := append(append([]byte{'['}, record...), ']')
	rows, err := r.do(ctx, http.MethodPost, collection, nil, body)
	if err != nil {
		return nil, remoteErr("insert", collection, err)
	}
	return firstRow("insert", collection, rows)
}

func (r *REST) Update(ctx context.Context, collection, id string, patch json.RawMessage) (json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	rows, err := r.do(ctx, http.MethodPatch, collection, idFilter(id), patch)
	if err != nil {
		return nil, remoteErr("update", collection, err)
	}
	return firstRow("update", collection, rows)
}

func (r *REST) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if _, err := r.do(ctx, http.MethodDelete, collection, idFilter(id), nil); err != nil {
		return remoteErr("delete", collection, err)
	}
	return nil
}

// Ping issues a minimal select against the projects collection.
func (r *REST) Ping(ctx context.Context) error {
	_, err := r.Select(ctx, "projects", Query{Limit: 1})
	return err
}

func idFilter(id string) url.Values {
	params := url.Values{}
	params.Set("id", "eq."+id)
	return params
}

func firstRow(operation, collection string, rows []json.RawMessage) (json.RawMessage, error) {
	if len(rows) == 0 {
		return nil, remoteErr(operation, collection, fmt.Errorf("no row returned: %w", services.ErrNotFound))
	}
	return rows[0], nil
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Hint    string `json:"hint"`
}

func (r *REST) do(ctx context.Context, method, collection string, params url.Values, body []byte) ([]json.RawMessage, error) {
	endpoint, err := url.Parse(r.baseURL + "/rest/v1/" + collection)
	if err != nil {
		return nil, fmt.Errorf("parse record store url: %w", err)
	}
	if params != nil {
		endpoint.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	requestStart := time.Now()
	resp, err := r.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	r.logger.Debug("record store request",
		logging.String("method", method),
		logging.String(logging.FieldCollection, collection),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency))

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var payload apiError
		if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
			return nil, fmt.Errorf("record store returned %d: %s", resp.StatusCode, payload.Message)
		}
		return nil, fmt.Errorf("record store returned %d (latency=%v)", resp.StatusCode, latency)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode record store response: %w", err)
	}
	return rows, nil
}
