// Package report assembles the dashboard report for the whole territory or
// a single region.
package report

import (
	"sort"
	"strings"

	"github.com/sells-group/riskmap/internal/advisory"
	"github.com/sells-group/riskmap/internal/aggregate"
	"github.com/sells-group/riskmap/internal/classify"
	"github.com/sells-group/riskmap/internal/model"
	"github.com/sells-group/riskmap/internal/territory"
)

// Scope selects what a report covers.
type Scope string

// Report scopes.
const (
	ScopeTerritory Scope = "territory"
	ScopeRegion    Scope = "region"
)

// DefaultTopN is the ranking length used when none is configured.
const DefaultTopN = 5

// RankEntry is one row of the top-N region ranking.
type RankEntry struct {
	Region string  `json:"region" yaml:"region"`
	Cases  int64   `json:"cases" yaml:"cases"`
	BarPct float64 `json:"bar_pct" yaml:"bar_pct"`
}

// Report is the assembled dashboard summary.
type Report struct {
	Scope        Scope              `json:"scope" yaml:"scope"`
	Title        string             `json:"title" yaml:"title"`
	Tier         model.Tier         `json:"tier" yaml:"tier"`
	Label        string             `json:"label" yaml:"label"`
	Description  string             `json:"description" yaml:"description"`
	HeaderColor  string             `json:"header_color" yaml:"header_color"`
	TotalCases   int64              `json:"total_cases" yaml:"total_cases"`
	Demographics model.Breakdown    `json:"demographics" yaml:"demographics"`
	Advisories   []string           `json:"advisories" yaml:"advisories"`
	GenderFilter model.GenderFilter `json:"gender_filter" yaml:"gender_filter"`
	Year         int                `json:"year,omitempty" yaml:"year,omitempty"`
	Ranking      []RankEntry        `json:"ranking,omitempty" yaml:"ranking,omitempty"`
}

// Input carries everything the assembler needs for one filter combination.
type Input struct {
	TerritoryName string
	Region        string // empty selects the whole territory
	Year          int
	Gender        model.GenderFilter
	TopN          int
	Aggregates    *aggregate.Aggregates
	Tiers         classify.Result
	Policy        territory.Policy
}

// Assemble builds the report for in.Region, or for the whole territory when
// no region is selected.
func Assemble(in Input) Report {
	if IsTerritory(in.Region) {
		return assembleTerritory(in)
	}
	return assembleRegion(in)
}

// IsTerritory reports whether a region selection means the whole territory.
func IsTerritory(region string) bool {
	switch strings.ToLower(strings.TrimSpace(region)) {
	case "", "all", "semua", "semua kab/kota":
		return true
	}
	return false
}

func assembleTerritory(in Input) Report {
	status := in.Policy.Status(in.Aggregates, in.Tiers)
	demographics := in.Aggregates.Territory()

	topN := in.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	return Report{
		Scope:        ScopeTerritory,
		Title:        strings.ToUpper(in.TerritoryName),
		Tier:         status.Tier,
		Label:        status.Tier.Label(),
		Description:  status.Description,
		HeaderColor:  status.Color(),
		TotalCases:   in.Aggregates.Total(),
		Demographics: demographics,
		Advisories:   advisory.Generate(status.Tier, demographics, in.Gender),
		GenderFilter: in.Gender,
		Year:         in.Year,
		Ranking:      Rank(in.Aggregates, topN),
	}
}

func assembleRegion(in Input) Report {
	name := model.NormalizeRegion(in.Region)
	region, _ := in.Aggregates.Get(name)
	tier := in.Tiers.Tier(name)

	return Report{
		Scope:        ScopeRegion,
		Title:        strings.ToUpper(name),
		Tier:         tier,
		Label:        tier.Label(),
		Description:  tier.Description(),
		HeaderColor:  tier.Color(),
		TotalCases:   region.Total,
		Demographics: region.Breakdown,
		Advisories:   advisory.Generate(tier, region.Breakdown, in.Gender),
		GenderFilter: in.Gender,
		Year:         in.Year,
	}
}

// Rank returns the top n regions by total cases, descending. Equal totals
// keep region-name order. BarPct is relative to the first entry and is 0
// when that entry has no cases.
func Rank(agg *aggregate.Aggregates, n int) []RankEntry {
	regions := agg.Regions()
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Total > regions[j].Total
	})
	if n > 0 && len(regions) > n {
		regions = regions[:n]
	}
	if len(regions) == 0 {
		return nil
	}

	top := regions[0].Total
	out := make([]RankEntry, len(regions))
	for i, r := range regions {
		var pct float64
		if top > 0 {
			pct = float64(r.Total) / float64(top) * 100
		}
		out[i] = RankEntry{Region: r.Name, Cases: r.Total, BarPct: pct}
	}
	return out
}
