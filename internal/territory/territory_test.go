package territory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/riskmap/internal/aggregate"
	"github.com/sells-group/riskmap/internal/classify"
	"github.com/sells-group/riskmap/internal/config"
	"github.com/sells-group/riskmap/internal/model"
)

func aggOf(totals map[string]int64) *aggregate.Aggregates {
	var records []model.Record
	for name, v := range totals {
		records = append(records, model.Record{Region: name, Bucket: model.BucketAdult, Cases: v})
	}
	return aggregate.Build(records)
}

var (
	weighted = Weighted{High: 2.2, Medium: 1.6}
	average  = Average{High: 500, Medium: 200}
)

func TestWeighted(t *testing.T) {
	tests := []struct {
		name      string
		totals    map[string]int64
		tiers     classify.Result
		wantTier  model.Tier
		wantIndex float64
	}{
		{
			name:      "mostly high cases",
			totals:    map[string]int64{"A": 900, "B": 100},
			tiers:     classify.Result{"A": model.TierHigh, "B": model.TierLow},
			wantTier:  model.TierHigh,
			wantIndex: 2.8,
		},
		{
			name:      "medium at breakpoint",
			totals:    map[string]int64{"A": 60, "B": 40},
			tiers:     classify.Result{"A": model.TierMedium, "B": model.TierLow},
			wantTier:  model.TierMedium,
			wantIndex: 1.6,
		},
		{
			name:      "low",
			totals:    map[string]int64{"A": 10, "B": 90},
			tiers:     classify.Result{"A": model.TierHigh, "B": model.TierLow},
			wantTier:  model.TierLow,
			wantIndex: 1.2,
		},
		{
			name:      "unclassified regions weigh zero",
			totals:    map[string]int64{"A": 50, "B": 50},
			tiers:     classify.Result{"A": model.TierMedium},
			wantTier:  model.TierLow,
			wantIndex: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weighted.Status(aggOf(tt.totals), tt.tiers)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.InDelta(t, tt.wantIndex, got.Index, 1e-9)
			assert.Equal(t, tt.wantTier.Description(), got.Description)
		})
	}
}

func TestWeighted_NoClassifiedRegions(t *testing.T) {
	got := weighted.Status(aggOf(map[string]int64{"A": 50, "B": 50}), classify.Result{})
	assert.Equal(t, model.TierUnknown, got.Tier)
	assert.Equal(t, UnclassifiedDescription, got.Description)
	assert.Zero(t, got.Index)
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name     string
		totals   map[string]int64
		wantTier model.Tier
	}{
		{"high", map[string]int64{"A": 1000, "B": 200}, model.TierHigh},
		{"exactly high threshold is medium", map[string]int64{"A": 500, "B": 500}, model.TierMedium},
		{"medium", map[string]int64{"A": 300, "B": 250}, model.TierMedium},
		{"exactly medium threshold is low", map[string]int64{"A": 200}, model.TierLow},
		{"low", map[string]int64{"A": 5, "B": 1}, model.TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTier, average.Status(aggOf(tt.totals), nil).Tier)
		})
	}
}

func TestZeroCases(t *testing.T) {
	for _, p := range []Policy{weighted, average} {
		t.Run(p.Name(), func(t *testing.T) {
			zero := aggOf(map[string]int64{"A": 0, "B": 0, "C": 0})
			got := p.Status(zero, classify.Result{"A": model.TierHigh})
			assert.Equal(t, model.TierLow, got.Tier)
			assert.Equal(t, NoCasesDescription, got.Description)
			assert.Zero(t, got.Index)

			empty := p.Status(aggregate.Build(nil), nil)
			assert.Equal(t, model.TierLow, empty.Tier)
		})
	}
}

func TestNew(t *testing.T) {
	p, err := New(config.TerritoryConfig{Policy: "weighted", WeightedHigh: 2.2, WeightedMedium: 1.6})
	require.NoError(t, err)
	assert.Equal(t, weighted, p)

	p, err = New(config.TerritoryConfig{Policy: "AVERAGE", AverageHigh: 500, AverageMedium: 200})
	require.NoError(t, err)
	assert.Equal(t, average, p)

	_, err = New(config.TerritoryConfig{Policy: "median"})
	require.Error(t, err)
}
