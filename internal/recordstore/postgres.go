package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"sebasite/internal/records"
	"sebasite/internal/services"
)

const postgresDriver = "pgx"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Postgres stores each collection in its own table holding the record
// payload as JSONB next to the identity and creation columns.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration

	mu    sync.Mutex
	ready map[string]bool
}

var _ Backend = (*Postgres)(nil)

// OpenPostgres prepares a connection pool for dsn. Connections are
// established lazily, so an unreachable server surfaces on first use.
func OpenPostgres(dsn string, timeout time.Duration) (*Postgres, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, services.Wrap(services.ErrConfiguration, "recordstore", "open", "postgres dsn required", nil)
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Postgres{db: db, timeout: timeout, ready: make(map[string]bool)}, nil
}

// DB exposes the underlying pool for integration tests.
func (p *Postgres) DB() *sql.DB { return p.db }

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.db.PingContext(ctx); err != nil {
		return remoteErr("ping", "", err)
	}
	return nil
}

func (p *Postgres) Select(ctx context.Context, collection string, q Query) ([]json.RawMessage, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.prepare(ctx, collection); err != nil {
		return nil, err
	}
	if err := checkOrderBy(q.OrderBy); err != nil {
		return nil, err
	}

	var (
		stmt strings.Builder
		args []any
	)
	stmt.WriteString("SELECT id, created_at, payload FROM ")
	stmt.WriteString(pgx.Identifier{collection}.Sanitize())
	switch q.OrderBy {
	case "":
	case "id", "created_at":
		stmt.WriteString(" ORDER BY " + pgx.Identifier{q.OrderBy}.Sanitize())
	default:
		args = append(args, q.OrderBy)
		stmt.WriteString(" ORDER BY payload->>$" + strconv.Itoa(len(args)))
	}
	if q.OrderBy != "" && q.Descending {
		stmt.WriteString(" DESC")
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		stmt.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := p.db.QueryContext(ctx, stmt.String(), args...)
	if err != nil {
		return nil, remoteErr("select", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var out []json.RawMessage
	for rows.Next() {
		row, err := scanRecord(rows)
		if err != nil {
			return nil, remoteErr("select", collection, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, remoteErr("select", collection, err)
	}
	return out, nil
}

func (p *Postgres) Insert(ctx context.Context, collection string, record json.RawMessage) (json.RawMessage, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.prepare(ctx, collection); err != nil {
		return nil, err
	}
	payload, err := payloadOf(record)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "recordstore", "insert", collection, err)
	}
	stmt := "INSERT INTO " + pgx.Identifier{collection}.Sanitize() +
		" (payload) VALUES ($1::jsonb) RETURNING id, created_at, payload"
	row, err := scanRecord(p.db.QueryRowContext(ctx, stmt, payload))
	if err != nil {
		return nil, remoteErr("insert", collection, err)
	}
	return row, nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, patch json.RawMessage) (json.RawMessage, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.prepare(ctx, collection); err != nil {
		return nil, err
	}
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, remoteErr("update", collection, fmt.Errorf("id %q: %w", id, services.ErrNotFound))
	}
	payload, err := payloadOf(patch)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "recordstore", "update", collection, err)
	}
	stmt := "UPDATE " + pgx.Identifier{collection}.Sanitize() +
		" SET payload = payload || $1::jsonb WHERE id = $2 RETURNING id, created_at, payload"
	row, err := scanRecord(p.db.QueryRowContext(ctx, stmt, payload, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, remoteErr("update", collection, fmt.Errorf("id %s: %w", id, services.ErrNotFound))
	}
	if err != nil {
		return nil, remoteErr("update", collection, err)
	}
	return row, nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.prepare(ctx, collection); err != nil {
		return err
	}
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return remoteErr("delete", collection, fmt.Errorf("id %q: %w", id, services.ErrNotFound))
	}
	stmt := "DELETE FROM " + pgx.Identifier{collection}.Sanitize() + " WHERE id = $1"
	if _, err := p.db.ExecContext(ctx, stmt, key); err != nil {
		return remoteErr("delete", collection, err)
	}
	return nil
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

// prepare validates the collection name and creates its table on first use.
func (p *Postgres) prepare(ctx context.Context, collection string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready[collection] {
		return nil
	}
	ddl := `CREATE TABLE IF NOT EXISTS ` + pgx.Identifier{collection}.Sanitize() + ` (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		payload JSONB NOT NULL
	)`
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return remoteErr("ensure table", collection, err)
	}
	p.ready[collection] = true
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (json.RawMessage, error) {
	var (
		id        int64
		createdAt time.Time
		payload   []byte
	)
	if err := row.Scan(&id, &createdAt, &payload); err != nil {
		return nil, err
	}
	return composeRecord(id, createdAt, payload)
}

// composeRecord folds the identity columns back into the stored payload.
func composeRecord(id int64, createdAt time.Time, payload []byte) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	fields["id"] = json.RawMessage(strconv.FormatInt(id, 10))
	stamp, err := json.Marshal(records.Timestamp(createdAt))
	if err != nil {
		return nil, err
	}
	fields["created_at"] = stamp
	return json.Marshal(fields)
}

// payloadOf strips the identity columns from a record before it is stored.
func payloadOf(record json.RawMessage) (string, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(record, &fields); err != nil {
		return "", fmt.Errorf("record must be a JSON object: %w", err)
	}
	delete(fields, "id")
	delete(fields, "created_at")
	delete(fields, "createdAt")
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
