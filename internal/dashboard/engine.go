// Package dashboard runs the full recompute for one filter and selection
// combination: filter, aggregate, classify, summarize and report.
package dashboard

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/riskmap/internal/aggregate"
	"github.com/sells-group/riskmap/internal/classify"
	"github.com/sells-group/riskmap/internal/config"
	"github.com/sells-group/riskmap/internal/model"
	"github.com/sells-group/riskmap/internal/report"
	"github.com/sells-group/riskmap/internal/territory"
)

// Query is one filter and selection combination. Year 0 means all years;
// an empty Region selects the whole territory.
type Query struct {
	Year   int
	Gender model.GenderFilter
	Region string
}

// RegionTier is one entry of the per-region layer consumed by map rendering.
type RegionTier struct {
	Region      string     `json:"region" yaml:"region"`
	Total       int64      `json:"total" yaml:"total"`
	Tier        model.Tier `json:"tier" yaml:"tier"`
	Label       string     `json:"label" yaml:"label"`
	Description string     `json:"description" yaml:"description"`
	Color       string     `json:"color" yaml:"color"`
}

// Layer maps region names to their layer entry.
type Layer map[string]RegionTier

// Lookup returns the layer entry for a region, or an Unknown entry with a
// zero total when the region has no data.
func (l Layer) Lookup(region string) RegionTier {
	name := model.NormalizeRegion(region)
	if rt, ok := l[name]; ok {
		return rt
	}
	return newRegionTier(name, 0, model.TierUnknown)
}

// Sorted returns the entries in region-name order.
func (l Layer) Sorted() []RegionTier {
	out := make([]RegionTier, 0, len(l))
	for _, rt := range l {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

func newRegionTier(name string, total int64, tier model.Tier) RegionTier {
	return RegionTier{
		Region:      name,
		Total:       total,
		Tier:        tier,
		Label:       tier.Label(),
		Description: tier.Description(),
		Color:       tier.Color(),
	}
}

// Result is the output of one recompute.
type Result struct {
	Query      Query
	Aggregates *aggregate.Aggregates
	Tiers      classify.Result
	Layer      Layer
	Report     report.Report
}

// Filters lists the selectable values present in the dataset.
type Filters struct {
	Years   []int          `json:"years" yaml:"years"`
	Genders []model.Gender `json:"genders" yaml:"genders"`
	Regions []string       `json:"regions" yaml:"regions"`
}

// Engine holds an immutable record set and the configured strategies.
// Compute does not mutate the engine, so one Engine can serve concurrent
// requests.
type Engine struct {
	records       []model.Record
	classifier    classify.Classifier
	policy        territory.Policy
	territoryName string
	topN          int
}

// New creates an Engine from configuration. The record slice is copied.
func New(records []model.Record, cfg *config.Config) (*Engine, error) {
	c, err := classify.New(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	p, err := territory.New(cfg.Territory)
	if err != nil {
		return nil, err
	}
	return NewWith(records, c, p, cfg.Territory.Name, cfg.Report.TopN), nil
}

// NewWith creates an Engine from explicit strategies.
func NewWith(records []model.Record, c classify.Classifier, p territory.Policy, territoryName string, topN int) *Engine {
	return &Engine{
		records:       append([]model.Record(nil), records...),
		classifier:    c,
		policy:        p,
		territoryName: territoryName,
		topN:          topN,
	}
}

// Len returns the number of loaded records.
func (e *Engine) Len() int { return len(e.records) }

// Filter returns the records matching the query's year and gender. The
// engine's records are not modified.
func (e *Engine) Filter(q Query) []model.Record {
	out := make([]model.Record, 0, len(e.records))
	for _, r := range e.records {
		if q.Year != 0 && r.Year != q.Year {
			continue
		}
		if !q.Gender.Match(r.Gender) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Compute runs the full pipeline for q.
func (e *Engine) Compute(q Query) *Result {
	start := time.Now()

	agg := aggregate.Build(e.Filter(q))
	tiers := e.classifier.Classify(agg)

	layer := make(Layer, agg.Len())
	for _, r := range agg.Regions() {
		layer[r.Name] = newRegionTier(r.Name, r.Total, tiers.Tier(r.Name))
	}

	rep := report.Assemble(report.Input{
		TerritoryName: e.territoryName,
		Region:        q.Region,
		Year:          q.Year,
		Gender:        q.Gender,
		TopN:          e.topN,
		Aggregates:    agg,
		Tiers:         tiers,
		Policy:        e.policy,
	})

	zap.L().Debug("dashboard: computed",
		zap.Int("year", q.Year),
		zap.String("gender", q.Gender.String()),
		zap.String("region", q.Region),
		zap.String("classifier", e.classifier.Name()),
		zap.Int("regions", agg.Len()),
		zap.Int("classified", len(tiers)),
		zap.String("tier", rep.Label),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Query:      q,
		Aggregates: agg,
		Tiers:      tiers,
		Layer:      layer,
		Report:     rep,
	}
}

// Filters returns the distinct years (ascending), genders and regions
// (name order) in the dataset.
func (e *Engine) Filters() Filters {
	years := make(map[int]struct{})
	genders := make(map[model.Gender]struct{})
	regions := make(map[string]struct{})
	for _, r := range e.records {
		years[r.Year] = struct{}{}
		genders[r.Gender] = struct{}{}
		regions[r.Region] = struct{}{}
	}

	f := Filters{
		Years:   make([]int, 0, len(years)),
		Genders: make([]model.Gender, 0, len(genders)),
		Regions: make([]string, 0, len(regions)),
	}
	for y := range years {
		f.Years = append(f.Years, y)
	}
	for g := range genders {
		f.Genders = append(f.Genders, g)
	}
	for r := range regions {
		f.Regions = append(f.Regions, r)
	}
	sort.Ints(f.Years)
	sort.Slice(f.Genders, func(i, j int) bool { return f.Genders[i] < f.Genders[j] })
	sort.Strings(f.Regions)
	return f
}
