// Package aggregation turns a batch of graded demographic evaluation runs
// into per-model leaderboard scores, within-category fairness gaps, and a
// measure of how strongly each model's accuracy responds to extra context.
//
// Aggregation is a pure in-memory transform: it does no I/O, keeps no state
// between calls, and never fails. Records that cannot be used are counted
// in DemographicAggregation.Skipped and otherwise ignored.
package aggregation

import (
	"sort"

	"github.com/weval-org/dtef/internal/models"
	"github.com/weval-org/dtef/internal/segments"
)

// Aggregator runs the aggregation pipeline with a fixed set of Options.
// It is safe for concurrent use.
type Aggregator struct {
	opts     Options
	resolver *ContextResolver
}

// New creates an Aggregator. Unset options fall back to DefaultOptions.
func New(opts Options) *Aggregator {
	opts = opts.withDefaults()
	return &Aggregator{
		opts:     opts,
		resolver: NewContextResolver(opts.ContextMarker),
	}
}

// Aggregate aggregates records with DefaultOptions.
func Aggregate(records []*models.EvaluationRunRecord) *DemographicAggregation {
	return New(DefaultOptions()).Aggregate(records)
}

// Aggregate builds the DemographicAggregation for records. Empty or fully
// unusable input yields an empty, well-formed result.
func (a *Aggregator) Aggregate(records []*models.EvaluationRunRecord) *DemographicAggregation {
	log := a.opts.Logger
	out := &DemographicAggregation{
		AggregatedAt: a.opts.Now().UTC(),
		ModelResults: []AggregatedModelResult{},
		Disparities:  []StrataDisparityEntry{},
		Leaderboard:  []LeaderboardEntry{},
	}

	c := newCollector()
	for _, rec := range records {
		if rec == nil {
			out.Skipped.NoContext++
			continue
		}
		dc, src := rec.ResolveContext(a.opts.Tag)
		if dc == nil {
			out.Skipped.NoContext++
			log.Debug("skipping record without segment context", "configId", rec.ConfigID, "runLabel", rec.RunLabel)
			continue
		}
		out.ResultCount++
		if out.SurveyID == "" {
			out.SurveyID = dc.SurveyID
		}

		segmentID := a.opts.Normalizer.SegmentID(dc.SegmentID)
		segmentLabel := a.opts.Normalizer.SegmentLabel(dc.SegmentLabel)
		category := segments.CategoryOf(segmentID)
		attrs := a.opts.Normalizer.Attributes(dc.SegmentAttributes)

		var contextCount *int
		if n, ok := a.resolver.Resolve(rec, dc); ok {
			contextCount = &n
		} else {
			out.Skipped.UnresolvedContext++
			log.Debug("context count unresolved; excluded from responsiveness analysis",
				"configId", rec.ConfigID, "runLabel", rec.RunLabel)
		}

		scores := ExtractScores(rec, a.opts.ExcludedModels)
		if len(scores) == 0 {
			out.Skipped.NoScores++
			log.Debug("record has no usable scores", "configId", rec.ConfigID, "runLabel", rec.RunLabel, "contextSource", string(src))
			continue
		}

		modelIDs := make([]string, 0, len(scores))
		for id := range scores {
			modelIDs = append(modelIDs, id)
		}
		sort.Strings(modelIDs)

		for _, modelID := range modelIDs {
			ms := scores[modelID]
			c.add(observation{
				modelID:      modelID,
				segmentID:    segmentID,
				segmentLabel: segmentLabel,
				category:     category,
				attributes:   attrs,
				run: RunScore{
					Score:        ms.AvgScore,
					PromptCount:  ms.PromptCount,
					ContextCount: contextCount,
					ConfigID:     rec.ConfigID,
					RunLabel:     rec.RunLabel,
					Timestamp:    rec.Timestamp,
				},
			})
		}
	}

	out.ModelResults = aggregateModels(c.segmentScores(), a.opts.Bootstrap)
	out.Disparities = analyzeDisparities(out.ModelResults)
	out.Leaderboard = leaderboard(out.ModelResults)
	out.ContextAnalysis = analyzeResponsiveness(c)

	log.Debug("aggregation complete",
		"surveyId", out.SurveyID,
		"results", out.ResultCount,
		"models", len(out.ModelResults),
		"disparities", len(out.Disparities),
		"skippedNoContext", out.Skipped.NoContext)
	return out
}

func leaderboard(results []AggregatedModelResult) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(results))
	for _, r := range results {
		out = append(out, LeaderboardEntry{
			ModelID:            r.ModelID,
			ModelName:          r.ModelName,
			OverallScore:       r.OverallScore,
			SegmentsEvaluated:  r.SegmentCount,
			QuestionsEvaluated: r.TotalPrompts,
			LastEvaluatedAt:    r.LastEvaluatedAt,
		})
	}
	return out
}
