// Package store persists imported case records in SQLite or Postgres so the
// dashboard can run without re-reading source spreadsheets.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/riskmap/internal/config"
	"github.com/sells-group/riskmap/internal/model"
)

// RecordFilter narrows ListRecords. Zero values select everything.
type RecordFilter struct {
	Year   int                `json:"year,omitempty"`
	Gender model.GenderFilter `json:"gender"`
	Region string             `json:"region,omitempty"`
}

// Batch describes one import. Replaced counts the earlier batches from the
// same source that the import superseded.
type Batch struct {
	ID         string    `json:"id" yaml:"id"`
	Source     string    `json:"source" yaml:"source"`
	Records    int       `json:"records" yaml:"records"`
	ImportedAt time.Time `json:"imported_at" yaml:"imported_at"`
	Replaced   int       `json:"replaced,omitempty" yaml:"replaced,omitempty"`
}

// Store defines the persistence interface for case records.
type Store interface {
	// Records. ImportRecords supersedes earlier batches from the same
	// source, so ListRecords never counts a re-imported file twice.
	ImportRecords(ctx context.Context, source string, records []model.Record) (*Batch, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error)

	// Batches
	ListBatches(ctx context.Context) ([]Batch, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		s, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

type scannable interface {
	Scan(dest ...any) error
}

// scanRecord reads region, year, gender, age_label, bucket, cases.
func scanRecord(row scannable) (model.Record, error) {
	var (
		r      model.Record
		gender string
		bucket int
	)
	if err := row.Scan(&r.Region, &r.Year, &gender, &r.AgeLabel, &bucket, &r.Cases); err != nil {
		return r, err
	}
	r.Gender = model.Gender(gender)
	r.Bucket = model.Bucket(bucket)
	return r, nil
}
