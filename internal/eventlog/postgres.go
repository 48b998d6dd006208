package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema bootstraps the single event_log table described in the
// persisted state layout: one row per appended event, ordered by
// (type_identifier, created_at) for replay.
const schema = `
CREATE TABLE IF NOT EXISTS event_log (
    id              BIGSERIAL PRIMARY KEY,
    type_identifier SMALLINT NOT NULL,
    event           BYTEA NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_event_log_type_created ON event_log(type_identifier, created_at);
`

// Postgres is a durable Log backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, bootstraps the event_log table, and
// returns a ready Log. The connection pool lifecycle mirrors the
// bounded sizing used elsewhere in this codebase for long-lived
// server-side pools.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("eventlog: parse config: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("eventlog: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventlog: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventlog: bootstrap schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Append inserts payload for typeID and returns the assigned row,
// including the server-assigned created_at timestamp.
func (p *Postgres) Append(ctx context.Context, typeID byte, payload []byte) (StoredEvent, error) {
	var createdAt time.Time
	err := p.pool.QueryRow(ctx,
		`INSERT INTO event_log (type_identifier, event) VALUES ($1, $2) RETURNING created_at`,
		int16(typeID), payload,
	).Scan(&createdAt)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("eventlog: insert: %w", err)
	}

	return StoredEvent{
		TypeID:    typeID,
		Payload:   payload,
		CreatedAt: createdAt.UnixNano(),
	}, nil
}

// ListAscending reads every event stored for typeID, ordered by
// created_at ascending.
func (p *Postgres) ListAscending(ctx context.Context, typeID byte) ([]StoredEvent, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT event, created_at FROM event_log WHERE type_identifier = $1 ORDER BY created_at ASC`,
		int16(typeID),
	)
	if err != nil {
		return nil, fmt.Errorf("eventlog: query: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var payload []byte
		var createdAt time.Time
		if err := rows.Scan(&payload, &createdAt); err != nil {
			return nil, fmt.Errorf("eventlog: scan: %w", err)
		}
		out = append(out, StoredEvent{TypeID: typeID, Payload: payload, CreatedAt: createdAt.UnixNano()})
	}
	return out, rows.Err()
}

// Close shuts down the underlying connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
