package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/riskmap/internal/model"
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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS import_batches (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	records     INTEGER NOT NULL DEFAULT 0,
	imported_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS cases (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id  TEXT NOT NULL REFERENCES import_batches(id),
	region    TEXT NOT NULL,
	year      INTEGER NOT NULL,
	gender    TEXT NOT NULL,
	age_label TEXT NOT NULL,
	bucket    INTEGER NOT NULL,
	cases     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_batches_source ON import_batches(source);
CREATE INDEX IF NOT EXISTS idx_cases_batch ON cases(batch_id);
CREATE INDEX IF NOT EXISTS idx_cases_year ON cases(year);
CREATE INDEX IF NOT EXISTS idx_cases_region ON cases(region);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ImportRecords replaces earlier batches from source and writes records
// under a new batch in one transaction.
func (s *SQLiteStore) ImportRecords(ctx context.Context, source string, records []model.Record) (*Batch, error) {
	batch := &Batch{
		ID:         uuid.New().String(),
		Source:     source,
		Records:    len(records),
		ImportedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin import")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cases WHERE batch_id IN (SELECT id FROM import_batches WHERE source = ?)`, source,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: delete superseded cases")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM import_batches WHERE source = ?`, source)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: replace batches")
	}
	if n, err := res.RowsAffected(); err == nil {
		batch.Replaced = int(n)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO import_batches (id, source, records, imported_at) VALUES (?, ?, ?, ?)`,
		batch.ID, batch.Source, batch.Records, batch.ImportedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert batch")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cases (batch_id, region, year, gender, age_label, bucket, cases) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare insert case")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			batch.ID, r.Region, r.Year, string(r.Gender), r.AgeLabel, int(r.Bucket), r.Cases,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert case for %s", r.Region)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit import")
	}
	return batch, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error) {
	query := `SELECT region, year, gender, age_label, bucket, cases FROM cases WHERE 1=1`
	var args []any

	if filter.Year != 0 {
		query += ` AND year = ?`
		args = append(args, filter.Year)
	}
	if !filter.Gender.All() {
		query += ` AND gender = ?`
		args = append(args, string(filter.Gender.Gender))
	}
	if filter.Region != "" {
		query += ` AND region = ?`
		args = append(args, model.NormalizeRegion(filter.Region))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

func (s *SQLiteStore) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, records, imported_at FROM import_batches ORDER BY imported_at DESC, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close() //nolint:errcheck

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Source, &b.Records, &b.ImportedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch")
		}
		batches = append(batches, b)
	}
	return batches, eris.Wrap(rows.Err(), "sqlite: list batches iterate")
}
