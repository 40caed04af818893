package aggregation

import (
	"sort"
	"strings"
	"time"

	"github.com/weval-org/dtef/internal/metrics"
	"github.com/weval-org/dtef/internal/models"
	"github.com/weval-org/dtef/internal/statistics"
)

// aggregateModels builds one AggregatedModelResult per model from the
// representative segment scores, sorted by overall score descending. Models
// with equal scores keep first-seen order.
func aggregateModels(scores []SegmentModelScore, bootstrap statistics.BootstrapConfig) []AggregatedModelResult {
	var order []string
	byModel := make(map[string][]SegmentModelScore)
	for _, s := range scores {
		if _, ok := byModel[s.ModelID]; !ok {
			order = append(order, s.ModelID)
		}
		byModel[s.ModelID] = append(byModel[s.ModelID], s)
	}

	results := make([]AggregatedModelResult, 0, len(order))
	for _, modelID := range order {
		results = append(results, aggregateModel(modelID, byModel[modelID], bootstrap))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OverallScore > results[j].OverallScore
	})
	return results
}

func aggregateModel(modelID string, segs []SegmentModelScore, bootstrap statistics.BootstrapConfig) AggregatedModelResult {
	sorted := make([]SegmentModelScore, len(segs))
	copy(sorted, segs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	values := make([]float64, len(sorted))
	totalPrompts := 0
	var last *time.Time
	for i, s := range sorted {
		values[i] = s.Score
		totalPrompts += s.PromptCount
		for _, r := range s.AllRuns {
			if t, ok := models.ParseTimestamp(r.Timestamp); ok && (last == nil || t.After(*last)) {
				last = &t
			}
		}
	}

	res := AggregatedModelResult{
		ModelID:         modelID,
		ModelName:       DisplayName(modelID),
		OverallScore:    metrics.Mean(values),
		SegmentCount:    len(sorted),
		TotalPrompts:    totalPrompts,
		SegmentStdDev:   metrics.StdDev(values),
		LastEvaluatedAt: last,
		SegmentScores:   sorted,
	}
	if len(sorted) > 0 {
		best, worst := extremes(sorted)
		res.BestSegment = &best
		res.WorstSegment = &worst
	}
	if len(sorted) >= 2 && bootstrap.Iterations > 0 {
		ci := statistics.BootstrapCI(values, bootstrap)
		res.ScoreCI = &ci
	}
	return res
}

// extremes returns the best and worst entries of segs, which must already be
// sorted by score descending. Among equal lowest scores the earliest one is
// the worst.
func extremes(segs []SegmentModelScore) (SegmentRef, SegmentRef) {
	best := segs[0]
	minScore := segs[len(segs)-1].Score
	worst := segs[len(segs)-1]
	for _, s := range segs {
		if s.Score == minScore {
			worst = s
			break
		}
	}
	return segmentRef(best), segmentRef(worst)
}

func segmentRef(s SegmentModelScore) SegmentRef {
	return SegmentRef{ID: s.SegmentID, Label: s.SegmentLabel, Score: s.Score}
}

// DisplayName strips the provider prefix and any routing path from a model
// id, so "openrouter:meta-llama/llama-3-70b" becomes "llama-3-70b".
func DisplayName(modelID string) string {
	name := modelID
	if i := strings.LastIndex(name, ":"); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	return name
}
