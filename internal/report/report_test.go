package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/riskmap/internal/aggregate"
	"github.com/sells-group/riskmap/internal/classify"
	"github.com/sells-group/riskmap/internal/model"
	"github.com/sells-group/riskmap/internal/territory"
)

func aggOf(totals map[string]int64) *aggregate.Aggregates {
	var records []model.Record
	for name, v := range totals {
		records = append(records, model.Record{Region: name, Bucket: model.BucketAdult, Cases: v})
	}
	return aggregate.Build(records)
}

func TestRank_TopFive(t *testing.T) {
	got := Rank(aggOf(map[string]int64{"A": 100, "B": 90, "C": 80, "D": 5, "E": 1, "F": 0}), 5)

	require.Len(t, got, 5)
	names := make([]string, len(got))
	pcts := make([]float64, len(got))
	for i, e := range got {
		names[i] = e.Region
		pcts[i] = e.BarPct
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)
	assert.InDeltaSlice(t, []float64{100, 90, 80, 5, 1}, pcts, 1e-9)
}

func TestRank_TiesKeepNameOrder(t *testing.T) {
	got := Rank(aggOf(map[string]int64{"Delta": 10, "Alpha": 10, "Charlie": 20, "Bravo": 10}), 3)

	require.Len(t, got, 3)
	assert.Equal(t, "Charlie", got[0].Region)
	assert.Equal(t, "Alpha", got[1].Region)
	assert.Equal(t, "Bravo", got[2].Region)
}

func TestRank_ZeroTopCount(t *testing.T) {
	got := Rank(aggOf(map[string]int64{"A": 0, "B": 0}), 5)
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Zero(t, e.BarPct)
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Nil(t, Rank(aggregate.Build(nil), 5))
}

func territoryInput(agg *aggregate.Aggregates, tiers classify.Result) Input {
	return Input{
		TerritoryName: "Jawa Barat (Provinsi)",
		Gender:        model.AllGenders,
		Aggregates:    agg,
		Tiers:         tiers,
		Policy:        territory.Weighted{High: 2.2, Medium: 1.6},
	}
}

func TestAssemble_Territory(t *testing.T) {
	agg := aggregate.Build([]model.Record{
		{Region: "Kota Bandung", Bucket: model.BucketAdult, Cases: 900},
		{Region: "Kota Bandung", Bucket: model.BucketChild, Cases: 10},
		{Region: "Kota Bogor", Bucket: model.BucketAdolescent, Cases: 90},
	})
	tiers := classify.Result{"Kota Bandung": model.TierHigh, "Kota Bogor": model.TierLow}

	got := Assemble(territoryInput(agg, tiers))

	assert.Equal(t, ScopeTerritory, got.Scope)
	assert.Equal(t, "JAWA BARAT (PROVINSI)", got.Title)
	assert.Equal(t, model.TierHigh, got.Tier)
	assert.Equal(t, "High", got.Label)
	assert.Equal(t, model.TierHigh.Color(), got.HeaderColor)
	assert.Equal(t, int64(1000), got.TotalCases)
	assert.Equal(t, model.Breakdown{10, 90, 900, 0}, got.Demographics)
	assert.Equal(t, "all", got.GenderFilter.String())
	require.Len(t, got.Ranking, 2)
	assert.Equal(t, "Kota Bandung", got.Ranking[0].Region)
	assert.NotEmpty(t, got.Advisories)
}

func TestAssemble_TerritoryZeroCases(t *testing.T) {
	got := Assemble(territoryInput(aggregate.Build(nil), classify.Result{}))

	assert.Equal(t, model.TierLow, got.Tier)
	assert.Equal(t, territory.NoCasesDescription, got.Description)
	assert.Zero(t, got.TotalCases)
	assert.Nil(t, got.Ranking)
	assert.NotEmpty(t, got.Advisories)
}

func TestAssemble_Region(t *testing.T) {
	agg := aggregate.Build([]model.Record{
		{Region: "Kota Bandung", Bucket: model.BucketChild, Cases: 10},
		{Region: "Kota Bandung", Bucket: model.BucketAdult, Cases: 5},
	})
	in := territoryInput(agg, classify.Result{"Kota Bandung": model.TierMedium})
	in.Region = "KOTA BANDUNG"
	in.Gender = model.GenderFilter{Gender: model.GenderFemale}

	got := Assemble(in)

	assert.Equal(t, ScopeRegion, got.Scope)
	assert.Equal(t, "KOTA BANDUNG", got.Title)
	assert.Equal(t, model.TierMedium, got.Tier)
	assert.Equal(t, model.TierMedium.Description(), got.Description)
	assert.Equal(t, int64(15), got.TotalCases)
	assert.Equal(t, model.Breakdown{10, 0, 5, 0}, got.Demographics)
	assert.Nil(t, got.Ranking)
	assert.Equal(t, "female", got.GenderFilter.String())
}

func TestAssemble_AbsentRegion(t *testing.T) {
	agg := aggOf(map[string]int64{"Kota Bandung": 10})
	in := territoryInput(agg, classify.Result{"Kota Bandung": model.TierHigh})
	in.Region = "Kabupaten Pangandaran"

	var got Report
	require.NotPanics(t, func() { got = Assemble(in) })

	assert.Equal(t, "KABUPATEN PANGANDARAN", got.Title)
	assert.Zero(t, got.TotalCases)
	assert.Equal(t, model.Breakdown{}, got.Demographics)
	assert.Equal(t, model.TierUnknown, got.Tier)
	assert.Equal(t, "Unknown", got.Label)
	assert.Equal(t, model.NeutralColor, got.HeaderColor)
	assert.NotEmpty(t, got.Advisories)
}

func TestIsTerritory(t *testing.T) {
	assert.True(t, IsTerritory(""))
	assert.True(t, IsTerritory("ALL"))
	assert.True(t, IsTerritory("SEMUA KAB/KOTA"))
	assert.False(t, IsTerritory("Kota Bandung"))
}

func TestAssemble_TopNDefault(t *testing.T) {
	totals := map[string]int64{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6, "G": 7}
	got := Assemble(territoryInput(aggOf(totals), classify.Result{}))
	assert.Len(t, got.Ranking, DefaultTopN)
}
