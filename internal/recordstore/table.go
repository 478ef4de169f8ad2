package recordstore

import (
	"context"
	"encoding/json"
	"fmt"

	"sebasite/internal/records"
	"sebasite/internal/services"
)

// Table is a typed view over one collection of a Backend.
type Table[T any] struct {
	backend    Backend
	collection string
}

// NewTable binds collection on backend to record type T.
func NewTable[T any](backend Backend, collection string) Table[T] {
	return Table[T]{backend: backend, collection: collection}
}

// Collection returns the bound collection name.
func (t Table[T]) Collection() string { return t.collection }

// List returns the rows matching q decoded as T.
func (t Table[T]) List(ctx context.Context, q Query) ([]T, error) {
	rows, err := t.backend.Select(ctx, t.collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		var rec T
		if err := json.Unmarshal(row, &rec); err != nil {
			return nil, remoteErr("decode", t.collection, fmt.Errorf("row %d: %w", i, err))
		}
		out = append(out, rec)
	}
	return out, nil
}

// Create inserts rec and returns the stored representation.
func (t Table[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	body, err := json.Marshal(rec)
	if err != nil {
		return zero, services.Wrap(services.ErrValidation, "recordstore", "encode", t.collection, err)
	}
	row, err := t.backend.Insert(ctx, t.collection, body)
	if err != nil {
		return zero, err
	}
	return t.decode(row)
}

// Update patches the record with id and returns the stored representation.
func (t Table[T]) Update(ctx context.Context, id records.ID, patch T) (T, error) {
	var zero T
	body, err := json.Marshal(patch)
	if err != nil {
		return zero, services.Wrap(services.ErrValidation, "recordstore", "encode", t.collection, err)
	}
	row, err := t.backend.Update(ctx, t.collection, id.String(), body)
	if err != nil {
		return zero, err
	}
	return t.decode(row)
}

// Delete removes the record with id.
func (t Table[T]) Delete(ctx context.Context, id records.ID) error {
	return t.backend.Delete(ctx, t.collection, id.String())
}

func (t Table[T]) decode(row json.RawMessage) (T, error) {
	var rec T
	if err := json.Unmarshal(row, &rec); err != nil {
		return rec, remoteErr("decode", t.collection, err)
	}
	return rec, nil
}
