package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"

	"github.com/sells-group/riskmap/internal/dashboard"
	"github.com/sells-group/riskmap/internal/model"
	"github.com/sells-group/riskmap/internal/report"
	"github.com/sells-group/riskmap/internal/store"
)

const barWidth = 24

// Text writes the report as a styled terminal summary. Styles degrade to
// plain text when w is not a terminal.
func Text(w io.Writer, rep report.Report) error {
	r := lipgloss.NewRenderer(w)

	header := r.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color("#ffffff")).
		Background(lipgloss.Color(rep.HeaderColor))
	section := r.NewStyle().Bold(true).MarginTop(1)
	muted := r.NewStyle().Faint(true)
	bar := r.NewStyle().Foreground(lipgloss.Color(rep.HeaderColor))

	var b strings.Builder
	b.WriteString(header.Render(rep.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Status: %s (%s)\n", rep.Label, rep.Description)
	fmt.Fprintf(&b, "Total cases: %s\n", humanize.Comma(rep.TotalCases))
	b.WriteString(muted.Render(filterLine(rep)))
	b.WriteString("\n")

	b.WriteString(section.Render("Demographics"))
	b.WriteString("\n")
	for _, bk := range model.Buckets {
		fmt.Fprintf(&b, "  %-11s %s\n", bk.String(), humanize.Comma(rep.Demographics[bk]))
	}

	if len(rep.Ranking) > 0 {
		b.WriteString(section.Render(fmt.Sprintf("Top %d regions", len(rep.Ranking))))
		b.WriteString("\n")
		nameWidth := 0
		for _, e := range rep.Ranking {
			nameWidth = max(nameWidth, lipgloss.Width(e.Region))
		}
		for i, e := range rep.Ranking {
			n := int(e.BarPct / 100 * barWidth)
			fmt.Fprintf(&b, "  %d. %-*s %s %s\n",
				i+1, nameWidth, e.Region,
				bar.Render(strings.Repeat("█", n)+strings.Repeat("░", barWidth-n)),
				humanize.Comma(e.Cases),
			)
		}
	}

	b.WriteString(section.Render("Advisories"))
	b.WriteString("\n")
	for i, a := range rep.Advisories {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, a)
	}

	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "render: write text report")
}

func filterLine(rep report.Report) string {
	year := "all years"
	if rep.Year != 0 {
		year = strconv.Itoa(rep.Year)
	}
	return fmt.Sprintf("Filter: %s, gender %s", year, rep.GenderFilter.String())
}

// LayerTable writes the per-region layer as a bordered table with each tier
// label in its tier color.
func LayerTable(w io.Writer, rows []dashboard.RegionTier) error {
	r := lipgloss.NewRenderer(w)
	headerStyle := r.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := r.NewStyle().Padding(0, 1)

	data := make([][]string, len(rows))
	for i, rt := range rows {
		tier := r.NewStyle().Foreground(lipgloss.Color(rt.Color)).Render(rt.Label)
		data[i] = []string{rt.Region, humanize.Comma(rt.Total), tier, rt.Description}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Faint(true)).
		Headers("REGION", "CASES", "TIER", "DESCRIPTION").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.Render())
	return eris.Wrap(err, "render: write layer table")
}

// TierSummary writes one line with the number of regions per tier. Regions
// with data but no tier are counted as unclassified.
func TierSummary(w io.Writer, counts map[model.Tier]int, regions int) error {
	parts := make([]string, 0, len(model.Tiers)+1)
	classified := 0
	for i := len(model.Tiers) - 1; i >= 0; i-- {
		t := model.Tiers[i]
		classified += counts[t]
		parts = append(parts, fmt.Sprintf("%s: %d", t.Label(), counts[t]))
	}
	if n := regions - classified; n > 0 {
		parts = append(parts, fmt.Sprintf("Unclassified: %d", n))
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, "  "))
	return eris.Wrap(err, "render: write tier summary")
}

// BatchTable writes stored import batches, newest first as the store
// returns them.
func BatchTable(w io.Writer, batches []store.Batch) error {
	if len(batches) == 0 {
		_, err := fmt.Fprintln(w, "No imports yet.")
		return eris.Wrap(err, "render: write batch table")
	}

	r := lipgloss.NewRenderer(w)
	headerStyle := r.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := r.NewStyle().Padding(0, 1)

	data := make([][]string, len(batches))
	for i, b := range batches {
		data[i] = []string{
			b.ImportedAt.UTC().Format("2006-01-02 15:04"),
			b.Source,
			humanize.Comma(int64(b.Records)),
			b.ID,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Faint(true)).
		Headers("IMPORTED", "SOURCE", "RECORDS", "BATCH").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.Render())
	return eris.Wrap(err, "render: write batch table")
}
