// Package aggregate groups case records by region and demographic bucket.
package aggregate

import (
	"sort"

	"github.com/sells-group/riskmap/internal/model"
)

// Region holds the totals for one region.
type Region struct {
	Name      string          `json:"name"`
	Total     int64           `json:"total"`
	Breakdown model.Breakdown `json:"breakdown"`
}

// Aggregates holds per-region totals in ascending region-name order.
// The zero value is an empty set.
type Aggregates struct {
	regions []Region
	index   map[string]int
}

// Build aggregates a record set. Every region that appears in records gets
// all four buckets, zero-filled when absent. Empty input yields empty
// aggregates.
func Build(records []model.Record) *Aggregates {
	byName := make(map[string]*Region)
	for _, r := range records {
		name := r.Region
		reg, ok := byName[name]
		if !ok {
			reg = &Region{Name: name}
			byName[name] = reg
		}
		b := r.Bucket
		if b < 0 || int(b) >= model.NumBuckets {
			b = model.BucketAdult
		}
		reg.Breakdown[b] += r.Cases
		reg.Total += r.Cases
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	agg := &Aggregates{
		regions: make([]Region, len(names)),
		index:   make(map[string]int, len(names)),
	}
	for i, name := range names {
		agg.regions[i] = *byName[name]
		agg.index[name] = i
	}
	return agg
}

// Len returns the number of regions.
func (a *Aggregates) Len() int {
	if a == nil {
		return 0
	}
	return len(a.regions)
}

// Regions returns a copy of the per-region aggregates in name order.
func (a *Aggregates) Regions() []Region {
	if a == nil {
		return nil
	}
	out := make([]Region, len(a.regions))
	copy(out, a.regions)
	return out
}

// Names returns region names in name order.
func (a *Aggregates) Names() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.regions))
	for i, r := range a.regions {
		out[i] = r.Name
	}
	return out
}

// Get looks up a region. The name is normalized before lookup.
func (a *Aggregates) Get(name string) (Region, bool) {
	if a == nil {
		return Region{}, false
	}
	i, ok := a.index[name]
	if !ok {
		i, ok = a.index[model.NormalizeRegion(name)]
	}
	if !ok {
		return Region{}, false
	}
	return a.regions[i], true
}

// Totals returns region name → total cases.
func (a *Aggregates) Totals() map[string]int64 {
	out := make(map[string]int64, a.Len())
	for _, r := range a.Regions() {
		out[r.Name] = r.Total
	}
	return out
}

// Breakdowns returns region name → bucket totals.
func (a *Aggregates) Breakdowns() map[string]model.Breakdown {
	out := make(map[string]model.Breakdown, a.Len())
	for _, r := range a.Regions() {
		out[r.Name] = r.Breakdown
	}
	return out
}

// Total returns the sum of all region totals.
func (a *Aggregates) Total() int64 {
	var n int64
	for _, r := range a.Regions() {
		n += r.Total
	}
	return n
}

// Territory returns the bucket totals summed across all regions.
func (a *Aggregates) Territory() model.Breakdown {
	var b model.Breakdown
	for _, r := range a.Regions() {
		b = b.Add(r.Breakdown)
	}
	return b
}
