package aggregation

import (
	"time"

	"github.com/weval-org/dtef/internal/models"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

func coverage(v float64) *models.CoverageScore {
	return &models.CoverageScore{AvgCoverageExtent: &v}
}

// newRecord builds a single-prompt run for segmentID with the given per-model
// scores.
func newRecord(configID, segmentID string, scores map[string]float64) *models.EvaluationRunRecord {
	byModel := make(map[string]*models.CoverageScore, len(scores))
	for m, v := range scores {
		byModel[m] = coverage(v)
	}
	return &models.EvaluationRunRecord{
		ConfigID:  configID,
		RunLabel:  "label-" + configID,
		Timestamp: "2025-05-01T10:00:00Z",
		DTEFContext: &models.DTEFContext{
			SurveyID:     "gd4",
			SegmentID:    segmentID,
			SegmentLabel: segmentID,
		},
		EvaluationResults: &models.EvaluationResults{
			LLMCoverageScores: map[string]map[string]*models.CoverageScore{
				"p1": byModel,
			},
		},
	}
}

func intPtr(n int) *int { return &n }
