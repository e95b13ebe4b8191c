package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/riskmap/internal/ingest"
	"github.com/sells-group/riskmap/internal/store"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import case records from CSV/XLSX into the store",
	Long:  "Import case records from CSV/XLSX into the store. Importing the same source again replaces its earlier batch.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importFile != "" {
			cfg.Data.Path = importFile
		}
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		records, err := ingest.Load(ctx, cfg.Data.Path, ingestOptions())
		if err != nil {
			return eris.Wrap(err, "import: load records")
		}

		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "import: open store")
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "import: migrate")
		}

		batch, err := st.ImportRecords(ctx, cfg.Data.Path, records)
		if err != nil {
			return eris.Wrap(err, "import: write records")
		}

		zap.L().Info("import complete",
			zap.String("batch_id", batch.ID),
			zap.String("source", batch.Source),
			zap.Int("records", batch.Records),
			zap.Int("replaced_batches", batch.Replaced),
			zap.String("driver", cfg.Store.Driver),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "records file, ftp:// or http(s):// URL (default data.path)")
	rootCmd.AddCommand(importCmd)
}
