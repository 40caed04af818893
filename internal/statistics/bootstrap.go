package statistics

import (
	"math"
	"math/rand"
	"sort"
)

// ConfidenceInterval holds the result of a bootstrap confidence interval computation.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidenceLevel"`
	NumBootstraps   int     `json:"numBootstraps"`
}

// DefaultConfidenceLevel is the two-sided interval width.
const DefaultConfidenceLevel = 0.95

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 2000

// DefaultBootstrapSeed keeps repeated aggregations of the same data identical.
const DefaultBootstrapSeed int64 = 42

// BootstrapConfig controls BootstrapCI.
type BootstrapConfig struct {
	ConfidenceLevel float64 `yaml:"confidence_level,omitempty"`
	Iterations      int     `yaml:"iterations,omitempty"`
	Seed            int64   `yaml:"seed,omitempty"`
}

// DefaultBootstrapConfig returns a 95% interval with the default seed.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		ConfidenceLevel: DefaultConfidenceLevel,
		Iterations:      DefaultBootstrapIterations,
		Seed:            DefaultBootstrapSeed,
	}
}

// BootstrapCI computes a percentile bootstrap confidence interval for the
// mean of scores. The resampling source is seeded from cfg so the same
// input always gives the same interval. Returns a degenerate interval at the
// mean when fewer than 2 data points exist or iterations is not positive.
func BootstrapCI(scores []float64, cfg BootstrapConfig) ConfidenceInterval {
	n := len(scores)
	m := mean(scores)
	level := cfg.ConfidenceLevel
	if level <= 0 || level >= 1 {
		level = DefaultConfidenceLevel
	}
	iters := cfg.Iterations
	if n < 2 || iters <= 0 {
		return ConfidenceInterval{
			Lower:           m,
			Upper:           m,
			Mean:            m,
			ConfidenceLevel: level,
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	bootMeans := make([]float64, iters)
	sample := make([]float64, n)
	for i := 0; i < iters; i++ {
		for j := 0; j < n; j++ {
			sample[j] = scores[rng.Intn(n)]
		}
		bootMeans[i] = mean(sample)
	}

	sort.Float64s(bootMeans)

	alpha := 1.0 - level
	loIdx := int(math.Floor(alpha / 2.0 * float64(iters)))
	hiIdx := int(math.Floor((1.0 - alpha/2.0) * float64(iters)))
	if hiIdx >= iters {
		hiIdx = iters - 1
	}

	return ConfidenceInterval{
		Lower:           bootMeans[loIdx],
		Upper:           bootMeans[hiIdx],
		Mean:            m,
		ConfidenceLevel: level,
		NumBootstraps:   iters,
	}
}

// NormalizedGain computes Hake's normalized gain (1998):
//
//	g = (post - pre) / (1 - pre)
//
// Used to compare a segment's score at its lowest and highest context level
// while controlling for ceiling effects. Returns 0 if pre >= 1.0 or pre ==
// post, and 1.0 if post >= 1.0.
func NormalizedGain(pre, post float64) float64 {
	if pre >= 1.0 {
		return 0.0
	}
	if post >= 1.0 {
		return 1.0
	}
	if math.Abs(post-pre) < 1e-12 {
		return 0.0
	}
	return (post - pre) / (1.0 - pre)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
