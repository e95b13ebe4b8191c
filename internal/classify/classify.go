// Package classify assigns regions to risk tiers from their aggregated case profile.
package classify

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/riskmap/internal/aggregate"
	"github.com/sells-group/riskmap/internal/config"
	"github.com/sells-group/riskmap/internal/model"
)

// Strategy names accepted in configuration.
const (
	StrategyKMeans   = "kmeans"
	StrategyQuantile = "quantile"
)

// Classifier maps each region in an aggregate set to a tier.
// Implementations must be deterministic for identical input.
type Classifier interface {
	Name() string
	Classify(agg *aggregate.Aggregates) Result
}

// Result maps region names to tiers. Regions that could not be classified
// are absent; use Tier for a lookup that defaults to TierUnknown.
type Result map[string]model.Tier

// Tier returns the tier for a region, or TierUnknown when absent.
func (r Result) Tier(region string) model.Tier {
	if t, ok := r[region]; ok {
		return t
	}
	if t, ok := r[model.NormalizeRegion(region)]; ok {
		return t
	}
	return model.TierUnknown
}

// Counts returns the number of regions per tier.
func (r Result) Counts() map[model.Tier]int {
	out := make(map[model.Tier]int, len(model.Tiers))
	for _, t := range r {
		out[t]++
	}
	return out
}

// New builds the classifier selected by cfg.Strategy.
func New(cfg config.ClassifierConfig) (Classifier, error) {
	switch strings.ToLower(cfg.Strategy) {
	case StrategyKMeans, "":
		return NewKMeans(cfg.Seed, cfg.Restarts, cfg.MaxIterations), nil
	case StrategyQuantile:
		return NewQuantile(cfg.LowQuantile, cfg.HighQuantile), nil
	default:
		return nil, eris.Errorf("classify: unknown strategy %q", cfg.Strategy)
	}
}
