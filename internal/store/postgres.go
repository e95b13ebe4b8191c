package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/riskmap/internal/db"
	"github.com/sells-group/riskmap/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

var caseColumns = []string{"batch_id", "region", "year", "gender", "age_label", "bucket", "cases"}

var (
	casesTable  = pgx.Identifier{"riskmap", "cases"}
	regionMerge = db.MergeConfig{
		Schema:  "riskmap",
		Table:   "regions",
		Columns: []string{"name", "last_batch_id"},
		Keys:    []string{"name"},
	}
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS riskmap;

CREATE TABLE IF NOT EXISTS riskmap.import_batches (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	records     INTEGER NOT NULL DEFAULT 0,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS riskmap.cases (
	id        BIGSERIAL PRIMARY KEY,
	batch_id  TEXT NOT NULL REFERENCES riskmap.import_batches(id) ON DELETE CASCADE,
	region    TEXT NOT NULL,
	year      INTEGER NOT NULL,
	gender    TEXT NOT NULL,
	age_label TEXT NOT NULL,
	bucket    SMALLINT NOT NULL,
	cases     BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS riskmap.regions (
	name          TEXT PRIMARY KEY,
	last_batch_id TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_import_batches_source ON riskmap.import_batches(source);
CREATE INDEX IF NOT EXISTS idx_cases_batch ON riskmap.cases(batch_id);
CREATE INDEX IF NOT EXISTS idx_cases_year ON riskmap.cases(year);
CREATE INDEX IF NOT EXISTS idx_cases_region ON riskmap.cases(region);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// ImportRecords replaces earlier batches from source, COPYs the records
// under a new batch and points the region registry at it, all in one
// transaction.
func (s *PostgresStore) ImportRecords(ctx context.Context, source string, records []model.Record) (*Batch, error) {
	batch := &Batch{
		ID:         uuid.New().String(),
		Source:     source,
		Records:    len(records),
		ImportedAt: time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin import")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM riskmap.regions WHERE last_batch_id IN (SELECT id FROM riskmap.import_batches WHERE source = $1)`,
		source,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: release regions")
	}
	tag, err := tx.Exec(ctx, `DELETE FROM riskmap.import_batches WHERE source = $1`, source)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: replace batches")
	}
	batch.Replaced = int(tag.RowsAffected())

	if _, err := tx.Exec(ctx,
		`INSERT INTO riskmap.import_batches (id, source, records, imported_at) VALUES ($1, $2, $3, $4)`,
		batch.ID, batch.Source, batch.Records, batch.ImportedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert batch")
	}

	rows := make([][]any, len(records))
	seen := make(map[string]bool)
	var regionRows [][]any
	for i, r := range records {
		rows[i] = []any{batch.ID, r.Region, r.Year, string(r.Gender), r.AgeLabel, int16(r.Bucket), r.Cases}
		if !seen[r.Region] {
			seen[r.Region] = true
			regionRows = append(regionRows, []any{r.Region, batch.ID})
		}
	}

	n, err := db.CopyFrom(ctx, tx, casesTable, caseColumns, rows)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: copy cases")
	}
	if _, err := db.Merge(ctx, tx, regionMerge, regionRows); err != nil {
		return nil, eris.Wrap(err, "postgres: upsert regions")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit import")
	}

	zap.L().Debug("postgres: imported batch",
		zap.String("batch_id", batch.ID),
		zap.Int64("copied", n),
		zap.Int("regions", len(regionRows)),
		zap.Int("replaced", batch.Replaced),
	)
	return batch, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error) {
	query := `SELECT region, year, gender, age_label, bucket, cases FROM riskmap.cases WHERE 1=1`
	var args []any

	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += ` AND year = $` + strconv.Itoa(len(args))
	}
	if !filter.Gender.All() {
		args = append(args, string(filter.Gender.Gender))
		query += ` AND gender = $` + strconv.Itoa(len(args))
	}
	if filter.Region != "" {
		args = append(args, model.NormalizeRegion(filter.Region))
		query += ` AND region = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func (s *PostgresStore) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, records, imported_at FROM riskmap.import_batches ORDER BY imported_at DESC, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list batches")
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Source, &b.Records, &b.ImportedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch")
		}
		batches = append(batches, b)
	}
	return batches, eris.Wrap(rows.Err(), "postgres: list batches iterate")
}
