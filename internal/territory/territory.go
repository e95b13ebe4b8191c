// Package territory derives one overall risk tier for every region in scope.
package territory

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/riskmap/internal/aggregate"
	"github.com/sells-group/riskmap/internal/classify"
	"github.com/sells-group/riskmap/internal/config"
	"github.com/sells-group/riskmap/internal/model"
)

// Policy names accepted in configuration.
const (
	PolicyWeighted = "weighted"
	PolicyAverage  = "average"
)

// Descriptions for statuses that carry no classification.
const (
	NoCasesDescription      = "No reported cases"
	UnclassifiedDescription = "Not enough regions to classify"
)

// Status is the territory-wide risk summary.
type Status struct {
	Tier        model.Tier `json:"tier"`
	Index       float64    `json:"index"`
	Description string     `json:"description"`
}

// Color returns the display color of the status tier.
func (s Status) Color() string { return s.Tier.Color() }

// Policy computes a territory status from region aggregates and tiers.
type Policy interface {
	Name() string
	Status(agg *aggregate.Aggregates, tiers classify.Result) Status
}

// Average compares mean cases per region against fixed thresholds.
type Average struct {
	High, Medium float64
}

// Name implements Policy.
func (a Average) Name() string { return PolicyAverage }

// Status implements Policy. Means strictly above High are High, strictly
// above Medium are Medium.
func (a Average) Status(agg *aggregate.Aggregates, _ classify.Result) Status {
	total := agg.Total()
	if total == 0 || agg.Len() == 0 {
		return noCases()
	}
	mean := float64(total) / float64(agg.Len())

	tier := model.TierLow
	switch {
	case mean > a.High:
		tier = model.TierHigh
	case mean > a.Medium:
		tier = model.TierMedium
	}
	return Status{Tier: tier, Index: mean, Description: tier.Description()}
}

// Weighted computes the case-weighted mean severity of region tiers and
// compares it against breakpoints. Unclassified regions weigh in with
// severity 0; when no region is classified the status is Unknown.
type Weighted struct {
	High, Medium float64
}

// Name implements Policy.
func (w Weighted) Name() string { return PolicyWeighted }

// Status implements Policy. Indexes at or above High are High, at or above
// Medium are Medium.
func (w Weighted) Status(agg *aggregate.Aggregates, tiers classify.Result) Status {
	total := agg.Total()
	if total == 0 {
		return noCases()
	}

	var (
		weighted   float64
		classified bool
	)
	for _, r := range agg.Regions() {
		t := tiers.Tier(r.Name)
		classified = classified || t.Known()
		weighted += float64(t.Severity()) * float64(r.Total)
	}
	if !classified {
		return Status{Tier: model.TierUnknown, Description: UnclassifiedDescription}
	}
	index := weighted / float64(total)

	tier := model.TierLow
	switch {
	case index >= w.High:
		tier = model.TierHigh
	case index >= w.Medium:
		tier = model.TierMedium
	}
	return Status{Tier: tier, Index: index, Description: tier.Description()}
}

func noCases() Status {
	return Status{Tier: model.TierLow, Description: NoCasesDescription}
}

// New builds the policy selected by cfg.Policy.
func New(cfg config.TerritoryConfig) (Policy, error) {
	switch strings.ToLower(cfg.Policy) {
	case PolicyWeighted, "":
		return Weighted{High: cfg.WeightedHigh, Medium: cfg.WeightedMedium}, nil
	case PolicyAverage:
		return Average{High: cfg.AverageHigh, Medium: cfg.AverageMedium}, nil
	default:
		return nil, eris.Errorf("territory: unknown policy %q", cfg.Policy)
	}
}
