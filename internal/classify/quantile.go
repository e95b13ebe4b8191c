package classify

import (
	"math"
	"sort"

	"github.com/sells-group/riskmap/internal/aggregate"
	"github.com/sells-group/riskmap/internal/model"
)

// Default quantile cut points.
const (
	DefaultLowQuantile  = 0.33
	DefaultHighQuantile = 0.66
)

// Quantile tiers regions by where their total falls against two percentiles
// of all region totals. Totals at or below the low cut are Low, at or below
// the high cut Medium, and everything above High.
type Quantile struct {
	low, high float64
}

// NewQuantile creates a Quantile classifier. Out-of-range cut points fall
// back to the defaults.
func NewQuantile(low, high float64) *Quantile {
	if low <= 0 || low >= 1 {
		low = DefaultLowQuantile
	}
	if high <= low || high >= 1 {
		high = math.Max(DefaultHighQuantile, low)
	}
	return &Quantile{low: low, high: high}
}

// Name implements Classifier.
func (q *Quantile) Name() string { return StrategyQuantile }

// Classify implements Classifier. Fewer than two regions yield an empty result.
func (q *Quantile) Classify(agg *aggregate.Aggregates) Result {
	regions := agg.Regions()
	if len(regions) < 2 {
		return Result{}
	}

	totals := make([]float64, len(regions))
	for i, r := range regions {
		totals[i] = float64(r.Total)
	}
	sort.Float64s(totals)
	lowCut := percentile(totals, q.low)
	highCut := percentile(totals, q.high)

	out := make(Result, len(regions))
	for _, r := range regions {
		v := float64(r.Total)
		switch {
		case v <= lowCut:
			out[r.Name] = model.TierLow
		case v <= highCut:
			out[r.Name] = model.TierMedium
		default:
			out[r.Name] = model.TierHigh
		}
	}
	return out
}

// percentile returns the p-th quantile of sorted values, interpolating
// linearly between the two closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
