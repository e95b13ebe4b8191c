package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/riskmap/internal/dashboard"
	"github.com/sells-group/riskmap/internal/model"
	"github.com/sells-group/riskmap/internal/render"
	"github.com/sells-group/riskmap/internal/server"
)

var (
	regionsYear    int
	regionsGender  string
	regionsFormat  string
	regionsGeoJSON string
	regionsTier    string
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List per-region totals and risk tiers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := render.ParseFormat(regionsFormat)
		if err != nil {
			return err
		}
		gender, ok := model.LookupGenderFilter(regionsGender)
		if !ok {
			return eris.Errorf("invalid --gender %q (all, male, female, unknown)", regionsGender)
		}
		var tier model.Tier
		if regionsTier != "" {
			if err := tier.UnmarshalText([]byte(regionsTier)); err != nil {
				return eris.Wrap(err, "invalid --tier")
			}
		}
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		in, err := loadInputs(cmd.Context())
		if err != nil {
			return err
		}

		res := in.engine.Compute(dashboard.Query{
			Year:   regionsYear,
			Gender: gender,
		})

		if regionsGeoJSON != "" {
			if in.boundaries.Len() == 0 {
				return eris.New("--geojson requires boundary.path")
			}
			fc, missing := in.boundaries.Choropleth(res.Layer)
			data, err := json.Marshal(fc)
			if err != nil {
				return eris.Wrap(err, "encode choropleth")
			}
			if err := os.WriteFile(regionsGeoJSON, data, 0o644); err != nil {
				return eris.Wrap(err, "write choropleth")
			}
			zap.L().Info("choropleth written",
				zap.String("path", regionsGeoJSON),
				zap.Int("features", len(fc.Features)),
				zap.Int("unmatched", len(missing)),
			)
		}

		rows := server.LayerRows(res.Layer, in.boundaries)
		if regionsTier != "" {
			rows = server.FilterTier(rows, tier)
		}
		if format != render.FormatText {
			return render.Encode(cmd.OutOrStdout(), format, rows)
		}
		if err := render.LayerTable(cmd.OutOrStdout(), rows); err != nil {
			return err
		}
		return render.TierSummary(cmd.OutOrStdout(), res.Tiers.Counts(), len(res.Layer))
	},
}

func init() {
	regionsCmd.Flags().IntVar(&regionsYear, "year", 0, "year filter (0 = all years)")
	regionsCmd.Flags().StringVar(&regionsGender, "gender", "all", "gender filter (all, male, female)")
	regionsCmd.Flags().StringVar(&regionsFormat, "format", "text", "output format (text, json, yaml)")
	regionsCmd.Flags().StringVar(&regionsTier, "tier", "", "only list regions in this tier (low, medium, high, unknown)")
	regionsCmd.Flags().StringVar(&regionsGeoJSON, "geojson", "", "also write the choropleth GeoJSON to this path")
	rootCmd.AddCommand(regionsCmd)
}
