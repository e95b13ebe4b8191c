package render

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sells-group/riskmap/internal/report"
)

// RankingChart saves the report's region ranking as a bar chart. The image
// format follows the path extension (.png, .svg, .pdf).
func RankingChart(path string, rep report.Report) error {
	if len(rep.Ranking) == 0 {
		return eris.New("render: report has no ranking to chart")
	}

	p := plot.New()
	p.Title.Text = rep.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Cases"

	values := make(plotter.Values, len(rep.Ranking))
	labels := make([]string, len(rep.Ranking))
	var top float64
	for i, e := range rep.Ranking {
		values[i] = float64(e.Cases)
		labels[i] = e.Region
		top = math.Max(top, values[i])
	}

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return eris.Wrap(err, "render: build bar chart")
	}
	bars.Color = hexColor(rep.HeaderColor)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = 0
	if top > 0 {
		p.Y.Max = top * 1.15
	}

	for i, v := range values {
		label, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: float64(i), Y: v + top*0.02}},
			Labels: []string{strconv.FormatInt(rep.Ranking[i].Cases, 10)},
		})
		if err != nil {
			return eris.Wrap(err, "render: build labels")
		}
		p.Add(label)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "render: save chart %s", path)
	}
	return nil
}

// hexColor parses "#rrggbb". Anything else yields a neutral grey.
func hexColor(s string) color.RGBA {
	grey := color.RGBA{R: 0x95, G: 0xa5, B: 0xa6, A: 0xff}
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return grey
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return grey
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
