package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/riskmap/internal/render"
	"github.com/sells-group/riskmap/internal/store"
)

var batchesFormat string

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List import batches held in the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := render.ParseFormat(batchesFormat)
		if err != nil {
			return err
		}

		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "batches: open store")
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "batches: migrate")
		}

		batches, err := st.ListBatches(ctx)
		if err != nil {
			return eris.Wrap(err, "batches: list")
		}

		if format == render.FormatText {
			return render.BatchTable(cmd.OutOrStdout(), batches)
		}
		return render.Encode(cmd.OutOrStdout(), format, batches)
	},
}

func init() {
	batchesCmd.Flags().StringVar(&batchesFormat, "format", "text", "output format (text, json, yaml)")
	rootCmd.AddCommand(batchesCmd)
}
