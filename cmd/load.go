package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/riskmap/internal/boundary"
	"github.com/sells-group/riskmap/internal/dashboard"
	"github.com/sells-group/riskmap/internal/ingest"
	"github.com/sells-group/riskmap/internal/model"
	"github.com/sells-group/riskmap/internal/store"
)

// inputs is everything a dashboard command needs.
type inputs struct {
	engine     *dashboard.Engine
	boundaries *boundary.Collection
}

// loadInputs reads records (from data.path, or the store when unset) and
// boundaries (when boundary.path is set) concurrently, then builds the
// engine.
func loadInputs(ctx context.Context) (*inputs, error) {
	var (
		records    []model.Record
		boundaries *boundary.Collection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = loadRecords(gctx)
		return err
	})
	if cfg.Boundary.Path != "" {
		g.Go(func() error {
			var err error
			boundaries, err = boundary.Load(cfg.Boundary.Path, cfg.Boundary.NameField)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	engine, err := dashboard.New(records, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "build dashboard")
	}

	zap.L().Info("inputs loaded",
		zap.Int("records", engine.Len()),
		zap.Int("boundaries", boundaries.Len()),
	)
	return &inputs{engine: engine, boundaries: boundaries}, nil
}

func loadRecords(ctx context.Context) ([]model.Record, error) {
	if cfg.Data.Path != "" {
		return ingest.Load(ctx, cfg.Data.Path, ingestOptions())
	}

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "migrate store")
	}
	return st.ListRecords(ctx, store.RecordFilter{})
}

func ingestOptions() ingest.Options {
	timeout := time.Duration(cfg.Data.FetchTimeoutSecs) * time.Second
	return ingest.Options{
		Sheet:       cfg.Data.Sheet,
		FTPTimeout:  timeout,
		HTTPTimeout: timeout,
	}
}
