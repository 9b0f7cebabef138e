package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/brightlane/prospect-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	pos           INTEGER PRIMARY KEY,
	input_context TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	website       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	latitude      REAL,
	longitude     REAL,
	status        TEXT NOT NULL DEFAULT '',
	last_seen     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL
);

INSERT OR IGNORE INTO snapshot_meta (id, version) VALUES (1, 0);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	var version int64
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM snapshot_meta WHERE id = 1`).Scan(&version); err != nil {
		return nil, eris.Wrap(err, "sqlite: read version")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT input_context, name, address, phone, website, email,
		       latitude, longitude, status, last_seen
		FROM records ORDER BY pos`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query records")
	}
	defer rows.Close() //nolint:errcheck

	snap := &Snapshot{Version: version}
	for rows.Next() {
		var (
			r        model.Record
			status   string
			lat, lon sql.NullFloat64
			lastSeen time.Time
		)
		if err := rows.Scan(&r.InputContext, &r.Name, &r.Address, &r.Phone, &r.Website, &r.Email,
			&lat, &lon, &status, &lastSeen); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if lat.Valid {
			r.Latitude = &lat.Float64
		}
		if lon.Valid {
			r.Longitude = &lon.Float64
		}
		r.Status = model.Status(status)
		r.LastSeen = lastSeen
		snap.Records = append(snap.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate records")
	}

	return snap, nil
}

func (s *SQLiteStore) Replace(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	var current int64
	if err := tx.QueryRowContext(ctx, `SELECT version FROM snapshot_meta WHERE id = 1`).Scan(&current); err != nil {
		return eris.Wrap(err, "sqlite: read version")
	}
	if current != snap.Version {
		return ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return eris.Wrap(err, "sqlite: clear records")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (pos, input_context, name, address, phone, website, email,
		                     latitude, longitude, status, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range snap.Records {
		var lat, lon any
		if r.Latitude != nil {
			lat = *r.Latitude
		}
		if r.Longitude != nil {
			lon = *r.Longitude
		}
		if _, err := stmt.ExecContext(ctx, i, r.InputContext, r.Name, r.Address, r.Phone,
			r.Website, r.Email, lat, lon, string(r.Status), r.LastSeen.UTC()); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %d", i)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE snapshot_meta SET version = version + 1 WHERE id = 1`); err != nil {
		return eris.Wrap(err, "sqlite: bump version")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}
