package testsupport

import (
	"context"
	"encoding/json"
	"sync"

	"sebasite/internal/records"
	"sebasite/internal/recordstore"
	"sebasite/internal/services"
)

// MemoryRecordStore is an in-process recordstore.Backend whose reachability
// can be toggled. Inserts assign increasing numeric ids and prepend rows so
// Select returns newest first.
type MemoryRecordStore struct {
	mu     sync.Mutex
	down   bool
	rows   map[string][]json.RawMessage
	nextID int
	calls  int
}

var _ recordstore.Backend = (*MemoryRecordStore)(nil)

// NewMemoryRecordStore returns an empty, reachable store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{rows: make(map[string][]json.RawMessage), nextID: 100}
}

// SetDown toggles whether every call fails with services.ErrRemoteUnavailable.
func (m *MemoryRecordStore) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

// Seed appends raw JSON rows to collection.
func (m *MemoryRecordStore) Seed(collection string, rows ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.rows[collection] = append(m.rows[collection], json.RawMessage(row))
	}
}

// Len returns the number of rows stored in collection.
func (m *MemoryRecordStore) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[collection])
}

// Calls returns how many backend operations were attempted.
func (m *MemoryRecordStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemoryRecordStore) begin(operation, collection string) error {
	m.calls++
	if m.down {
		return services.Wrap(services.ErrRemoteUnavailable, "memory", operation, collection, nil)
	}
	return nil
}

func (m *MemoryRecordStore) Select(_ context.Context, collection string, q recordstore.Query) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("select", collection); err != nil {
		return nil, err
	}
	rows := append([]json.RawMessage(nil), m.rows[collection]...)
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func (m *MemoryRecordStore) Insert(_ context.Context, collection string, record json.RawMessage) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("insert", collection); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(record, &fields); err != nil {
		return nil, services.Wrap(services.ErrRemoteUnavailable, "memory", "insert", collection, err)
	}
	m.nextID++
	fields["id"] = m.nextID
	fields["created_at"] = "2024-06-01T00:00:00.000Z"
	row, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	m.rows[collection] = append([]json.RawMessage{row}, m.rows[collection]...)
	return row, nil
}

func (m *MemoryRecordStore) Update(_ context.Context, collection, id string, patch json.RawMessage) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("update", collection); err != nil {
		return nil, err
	}
	for i, row := range m.rows[collection] {
		if rowID(row) != id {
			continue
		}
		fields := map[string]any{}
		_ = json.Unmarshal(row, &fields)
		changes := map[string]any{}
		if err := json.Unmarshal(patch, &changes); err != nil {
			return nil, services.Wrap(services.ErrRemoteUnavailable, "memory", "update", collection, err)
		}
		for k, v := range changes {
			if k == "id" || k == "created_at" {
				continue
			}
			fields[k] = v
		}
		updated, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		m.rows[collection][i] = updated
		return updated, nil
	}
	return nil, services.Wrap(services.ErrRemoteUnavailable, "memory", "update", collection, services.ErrNotFound)
}

func (m *MemoryRecordStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("delete", collection); err != nil {
		return err
	}
	kept := make([]json.RawMessage, 0, len(m.rows[collection]))
	for _, row := range m.rows[collection] {
		if rowID(row) != id {
			kept = append(kept, row)
		}
	}
	m.rows[collection] = kept
	return nil
}

func (m *MemoryRecordStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begin("ping", "")
}

func (m *MemoryRecordStore) Name() string { return "memory" }

func (m *MemoryRecordStore) Close() error { return nil }

func rowID(row json.RawMessage) string {
	var probe struct {
		ID records.ID `json:"id"`
	}
	_ = json.Unmarshal(row, &probe)
	return probe.ID.String()
}
