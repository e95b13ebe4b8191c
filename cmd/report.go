package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/riskmap/internal/dashboard"
	"github.com/sells-group/riskmap/internal/model"
	"github.com/sells-group/riskmap/internal/render"
)

var (
	reportYear   int
	reportGender string
	reportRegion string
	reportFormat string
	reportChart  string
	reportData   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the territory or region report for a filter",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := render.ParseFormat(reportFormat)
		if err != nil {
			return err
		}
		gender, ok := model.LookupGenderFilter(reportGender)
		if !ok {
			return eris.Errorf("invalid --gender %q (all, male, female, unknown)", reportGender)
		}
		if reportData != "" {
			cfg.Data.Path = reportData
		}
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		in, err := loadInputs(cmd.Context())
		if err != nil {
			return err
		}

		res := in.engine.Compute(dashboard.Query{
			Year:   reportYear,
			Gender: gender,
			Region: reportRegion,
		})

		if reportChart != "" {
			if err := render.RankingChart(reportChart, res.Report); err != nil {
				return eris.Wrap(err, "write chart")
			}
			zap.L().Info("chart written", zap.String("path", reportChart))
		}

		if format == render.FormatText {
			return render.Text(cmd.OutOrStdout(), res.Report)
		}
		return render.Encode(cmd.OutOrStdout(), format, res.Report)
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "year filter (0 = all years)")
	reportCmd.Flags().StringVar(&reportGender, "gender", "all", "gender filter (all, male, female)")
	reportCmd.Flags().StringVar(&reportRegion, "region", "", "region to report on (default whole territory)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "output format (text, json, yaml)")
	reportCmd.Flags().StringVar(&reportChart, "chart", "", "write the ranking bar chart to this image path")
	reportCmd.Flags().StringVar(&reportData, "data", "", "records file or ftp:// URL (default data.path, else the store)")
	rootCmd.AddCommand(reportCmd)
}
