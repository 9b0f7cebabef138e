package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/brightlane/prospect-cli/internal/model"
)

// pgPool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type pgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	pos           BIGINT PRIMARY KEY,
	input_context TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	website       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	latitude      DOUBLE PRECISION,
	longitude     DOUBLE PRECISION,
	status        TEXT NOT NULL DEFAULT '',
	last_seen     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	id      INT PRIMARY KEY CHECK (id = 1),
	version BIGINT NOT NULL
);

INSERT INTO snapshot_meta (id, version) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	var version int64
	if err := s.pool.QueryRow(ctx, `SELECT version FROM snapshot_meta WHERE id = 1`).Scan(&version); err != nil {
		return nil, eris.Wrap(err, "postgres: read version")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT input_context, name, address, phone, website, email,
		       latitude, longitude, status, last_seen
		FROM records ORDER BY pos`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query records")
	}
	defer rows.Close()

	snap := &Snapshot{Version: version}
	for rows.Next() {
		var (
			r      model.Record
			status string
		)
		if err := rows.Scan(&r.InputContext, &r.Name, &r.Address, &r.Phone, &r.Website, &r.Email,
			&r.Latitude, &r.Longitude, &status, &r.LastSeen); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		r.Status = model.Status(status)
		snap.Records = append(snap.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate records")
	}

	return snap, nil
}

func (s *PostgresStore) Replace(ctx context.Context, snap *Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current int64
	if err := tx.QueryRow(ctx, `SELECT version FROM snapshot_meta WHERE id = 1 FOR UPDATE`).Scan(&current); err != nil {
		return eris.Wrap(err, "postgres: read version")
	}
	if current != snap.Version {
		return ErrVersionConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM records`); err != nil {
		return eris.Wrap(err, "postgres: clear records")
	}

	rows := make([][]any, len(snap.Records))
	for i, r := range snap.Records {
		rows[i] = []any{int64(i), r.InputContext, r.Name, r.Address, r.Phone, r.Website,
			r.Email, r.Latitude, r.Longitude, string(r.Status), r.LastSeen.UTC()}
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"records"},
			[]string{"pos", "input_context", "name", "address", "phone", "website",
				"email", "latitude", "longitude", "status", "last_seen"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return eris.Wrap(err, "postgres: copy records")
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE snapshot_meta SET version = version + 1 WHERE id = 1`); err != nil {
		return eris.Wrap(err, "postgres: bump version")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}
