package classify

import (
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/riskmap/internal/aggregate"
	"github.com/sells-group/riskmap/internal/model"
)

// Clustering parameters.
const (
	numClusters          = 3
	DefaultSeed          = 42
	DefaultRestarts      = 10
	DefaultMaxIterations = 300
)

// KMeans clusters regions on their standardized bucket profile into three
// groups and ranks the groups by mean region total: the lowest mean is Low,
// the highest High. Seeding is k-means++ from a fixed seed so results are
// reproducible.
type KMeans struct {
	seed          int64
	restarts      int
	maxIterations int
}

// NewKMeans creates a KMeans classifier. Non-positive restarts or iteration
// limits use the defaults.
func NewKMeans(seed int64, restarts, maxIterations int) *KMeans {
	if restarts <= 0 {
		restarts = DefaultRestarts
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &KMeans{seed: seed, restarts: restarts, maxIterations: maxIterations}
}

// Name implements Classifier.
func (k *KMeans) Name() string { return StrategyKMeans }

// Classify implements Classifier. Fewer than three regions yield an empty result.
func (k *KMeans) Classify(agg *aggregate.Aggregates) Result {
	regions := agg.Regions()
	if len(regions) < numClusters {
		return Result{}
	}

	points := standardize(regions)
	rng := rand.New(rand.NewSource(k.seed))

	var best []int
	bestInertia := math.Inf(1)
	for run := 0; run < k.restarts; run++ {
		centers := seedCenters(points, numClusters, rng)
		labels, inertia, iters := lloyd(points, centers, k.maxIterations)
		zap.L().Debug("classify: kmeans run",
			zap.Int("run", run),
			zap.Int("iterations", iters),
			zap.Float64("inertia", inertia),
		)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}

	tiers := rankClusters(regions, best)
	out := make(Result, len(regions))
	for i, r := range regions {
		out[r.Name] = tiers[best[i]]
	}
	return out
}

// standardize returns each region's bucket vector scaled to zero mean and
// unit variance per bucket across the given regions. Buckets with no
// variance are centered but not scaled.
func standardize(regions []aggregate.Region) [][]float64 {
	n := len(regions)
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, model.NumBuckets)
	}

	col := make([]float64, n)
	for b := 0; b < model.NumBuckets; b++ {
		for i, r := range regions {
			col[i] = float64(r.Breakdown[b])
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := range regions {
			points[i][b] = (col[i] - mean) / std
		}
	}
	return points
}

// seedCenters picks k initial centers with k-means++ weighting.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centers = append(centers, append([]float64(nil), first...))

	dist := make([]float64, len(points))
	for len(centers) < k {
		var sum float64
		for i, p := range points {
			dist[i] = math.Inf(1)
			for _, c := range centers {
				dist[i] = math.Min(dist[i], sqDist(p, c))
			}
			sum += dist[i]
		}

		next := rng.Intn(len(points))
		if sum > 0 {
			target := rng.Float64() * sum
			var acc float64
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}
		centers = append(centers, append([]float64(nil), points[next]...))
	}
	return centers
}

// lloyd runs assignment/update rounds until labels stop changing or the
// iteration limit is hit. It returns labels, inertia and iterations used.
func lloyd(points, centers [][]float64, maxIterations int) ([]int, float64, int) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	iters := 0
	for iters < maxIterations {
		iters++
		changed := false
		for i, p := range points {
			c := nearest(p, centers)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		updateCenters(points, labels, centers)
	}

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centers[labels[i]])
	}
	return labels, inertia, iters
}

// updateCenters moves each center to the mean of its members. Empty
// clusters keep their previous center.
func updateCenters(points [][]float64, labels []int, centers [][]float64) {
	dim := len(points[0])
	counts := make([]int, len(centers))
	sums := make([][]float64, len(centers))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for c := range centers {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		copy(centers[c], sums[c])
	}
}

// nearest returns the index of the closest center; ties go to the lower index.
func nearest(p []float64, centers [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// rankClusters orders non-empty clusters by mean region total and maps
// them to tiers in ascending order. Equal means keep cluster index order.
func rankClusters(regions []aggregate.Region, labels []int) map[int]model.Tier {
	sums := make([]float64, numClusters)
	counts := make([]int, numClusters)
	for i, r := range regions {
		sums[labels[i]] += float64(r.Total)
		counts[labels[i]]++
	}

	var clusters []int
	for c := 0; c < numClusters; c++ {
		if counts[c] > 0 {
			clusters = append(clusters, c)
		}
	}
	mean := func(c int) float64 { return sums[c] / float64(counts[c]) }
	sort.SliceStable(clusters, func(i, j int) bool {
		return mean(clusters[i]) < mean(clusters[j])
	})

	tiers := make(map[int]model.Tier, numClusters)
	for rank, c := range clusters {
		tiers[c] = model.Tiers[rank]
	}
	return tiers
}
