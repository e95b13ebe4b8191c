package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/riskmap/internal/render"
)

var filtersFormat string

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the years, genders and regions available for filtering",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := render.ParseFormat(filtersFormat)
		if err != nil {
			return err
		}
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		in, err := loadInputs(cmd.Context())
		if err != nil {
			return err
		}
		f := in.engine.Filters()

		if format != render.FormatText {
			return render.Encode(cmd.OutOrStdout(), format, f)
		}

		years := make([]string, len(f.Years))
		for i, y := range f.Years {
			years[i] = strconv.Itoa(y)
		}
		genders := make([]string, len(f.Genders))
		for i, g := range f.Genders {
			genders[i] = string(g)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Years:   %s\n", strings.Join(years, ", "))
		fmt.Fprintf(out, "Genders: %s\n", strings.Join(genders, ", "))
		fmt.Fprintf(out, "Regions: %s\n", strings.Join(f.Regions, ", "))
		return nil
	},
}

func init() {
	filtersCmd.Flags().StringVar(&filtersFormat, "format", "text", "output format (text, json, yaml)")
	rootCmd.AddCommand(filtersCmd)
}
