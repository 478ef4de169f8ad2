package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"sebasite/internal/config"
	"sebasite/internal/services"
)

// Query shapes a Select call.
type Query struct {
	OrderBy    string
	Descending bool
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// NewestFirst orders by creation time, newest first.
func NewestFirst(limit int) Query {
	return Query{OrderBy: "created_at", Descending: true, Limit: limit}
}

// Backend is the raw record store contract. Records travel as JSON objects;
// writes return the canonical stored representation.
type Backend interface {
	Select(ctx context.Context, collection string, q Query) ([]json.RawMessage, error)
	Insert(ctx context.Context, collection string, record json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, collection, id string, patch json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, collection, id string) error
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	// Name identifies the driver in logs and status output.
	Name() string
	Close() error
}

// Open returns the backend selected by cfg.RecordStore.Driver.
func Open(cfg *config.Config, logger *slog.Logger) (Backend, error) {
	switch cfg.RecordStore.Driver {
	case config.RecordStoreDriverREST:
		rest, err := NewREST(cfg.RecordStore.BaseURL, cfg.RecordStore.APIKey,
			WithTimeout(cfg.RecordStoreTimeout()), WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return rest, nil
	case config.RecordStoreDriverPostgres:
		pg, err := OpenPostgres(cfg.RecordStore.DSN, cfg.RecordStoreTimeout())
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.RecordStoreDriverOffline:
		return Offline{}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "recordstore", "open",
			fmt.Sprintf("unsupported driver %q", cfg.RecordStore.Driver), nil)
	}
}

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func checkCollection(collection string) error {
	if !identifierPattern.MatchString(collection) {
		return services.Wrap(services.ErrValidation, "recordstore", "collection",
			fmt.Sprintf("invalid collection name %q", collection), nil)
	}
	return nil
}

func checkOrderBy(column string) error {
	if column == "" || identifierPattern.MatchString(column) {
		return nil
	}
	return services.Wrap(services.ErrValidation, "recordstore", "order",
		fmt.Sprintf("invalid order column %q", column), nil)
}

func remoteErr(operation, collection string, err error) error {
	return services.Wrap(services.ErrRemoteUnavailable, "recordstore", operation, collection, err)
}
