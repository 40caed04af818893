package aggregation

import "github.com/weval-org/dtef/internal/segments"

// FairnessConcern is a flattened disparity entry for dashboards.
type FairnessConcern struct {
	ModelID       string            `json:"modelId"`
	Category      segments.Category `json:"category"`
	CategoryLabel string            `json:"categoryLabel"`
	BestSegment   SegmentRef        `json:"bestSegment"`
	WorstSegment  SegmentRef        `json:"worstSegment"`
	Gap           float64           `json:"gap"`
}

// TopModel is a flattened leaderboard row.
type TopModel struct {
	ModelID      string  `json:"modelId"`
	ModelName    string  `json:"modelName"`
	OverallScore float64 `json:"overallScore"`
	SegmentCount int     `json:"segmentCount"`
}

// FairnessConcerns returns the disparities with a gap of at least minGap,
// largest first.
func (d *DemographicAggregation) FairnessConcerns(minGap float64) []FairnessConcern {
	out := []FairnessConcern{}
	for _, e := range d.Disparities {
		if e.AbsoluteGap < minGap {
			continue
		}
		out = append(out, FairnessConcern{
			ModelID:       e.ModelID,
			Category:      e.Category,
			CategoryLabel: e.CategoryLabel,
			BestSegment:   e.BestSegment,
			WorstSegment:  e.WorstSegment,
			Gap:           e.AbsoluteGap,
		})
	}
	return out
}

// TopModels returns the n best models; n <= 0 returns all of them.
func (d *DemographicAggregation) TopModels(n int) []TopModel {
	results := d.ModelResults
	if n > 0 && n < len(results) {
		results = results[:n]
	}
	out := make([]TopModel, 0, len(results))
	for _, r := range results {
		out = append(out, TopModel{
			ModelID:      r.ModelID,
			ModelName:    r.ModelName,
			OverallScore: r.OverallScore,
			SegmentCount: r.SegmentCount,
		})
	}
	return out
}
