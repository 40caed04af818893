package aggregation

import (
	"log/slog"
	"regexp"
	"time"

	"github.com/weval-org/dtef/internal/segments"
	"github.com/weval-org/dtef/internal/statistics"
)

// DefaultContextMarker matches the heading each included context question
// renders with inside a prompt.
const DefaultContextMarker = `(?m)^\s*Context question \d+:`

// DefaultTag marks records that belong to the demographic evaluation family
// when they carry their segment context in flat metadata.
const DefaultTag = "dtef"

// IdealModelID is the reference column written by the runner alongside real
// model responses. It never competes on the leaderboard.
const IdealModelID = "IDEAL_BENCHMARK"

// Options configures an Aggregator. Unset fields fall back to
// DefaultOptions, except Bootstrap: a zero Bootstrap disables score
// confidence intervals.
type Options struct {
	Normalizer     *segments.Normalizer
	ContextMarker  *regexp.Regexp
	ExcludedModels []string
	Tag            string
	Bootstrap      statistics.BootstrapConfig

	// Now stamps AggregatedAt. Tests pin it for reproducible output.
	Now    func() time.Time
	Logger *slog.Logger
}

// DefaultOptions returns the standard alias table, marker pattern and
// exclusions.
func DefaultOptions() Options {
	return Options{
		Normalizer:     segments.NewNormalizer(segments.DefaultAliases()),
		ContextMarker:  regexp.MustCompile(DefaultContextMarker),
		ExcludedModels: []string{IdealModelID},
		Tag:            DefaultTag,
		Bootstrap:      statistics.DefaultBootstrapConfig(),
		Now:            time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Normalizer == nil {
		o.Normalizer = d.Normalizer
	}
	if o.ContextMarker == nil {
		o.ContextMarker = d.ContextMarker
	}
	if o.ExcludedModels == nil {
		o.ExcludedModels = d.ExcludedModels
	}
	if o.Tag == "" {
		o.Tag = d.Tag
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
