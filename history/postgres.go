package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists trace events and miss records to Postgres.
// Connection pool sizing mirrors control_plane/store/postgres.go's
// NewPostgresStore: modest pool, hour-long connection lifetime,
// health-checked periodically by pgxpool itself.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to connString and verifies reachability.
// Callers are expected to have already applied the schema (two
// tables: trace_events, miss_records) out of band; this module does
// not ship migrations, matching the teacher's own assumption that
// schema management happens outside the service binary.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) RecordEvent(ctx context.Context, ev TraceEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trace_events (tick, task, kind, deadline, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.Tick, ev.Task, ev.Kind, ev.Deadline, ev.Recorded)
	return err
}

func (s *PostgresStore) RecordMiss(ctx context.Context, m MissRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO miss_records (task, tick, deadline, recorded_at)
		VALUES ($1, $2, $3, $4)
	`, m.Task, m.Tick, m.Deadline, m.Recorded)
	return err
}

func (s *PostgresStore) RecentEvents(ctx context.Context, limit int) ([]TraceEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tick, task, kind, deadline, recorded_at
		FROM trace_events ORDER BY recorded_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TraceEvent
	for rows.Next() {
		var ev TraceEvent
		if err := rows.Scan(&ev.Tick, &ev.Task, &ev.Kind, &ev.Deadline, &ev.Recorded); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MissesForTask(ctx context.Context, task int, limit int) ([]MissRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT task, tick, deadline, recorded_at
		FROM miss_records WHERE task = $1 ORDER BY recorded_at DESC LIMIT $2
	`, task, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MissRecord
	for rows.Next() {
		var m MissRecord
		if err := rows.Scan(&m.Task, &m.Tick, &m.Deadline, &m.Recorded); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
