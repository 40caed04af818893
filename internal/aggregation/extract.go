package aggregation

import (
	"math"

	"github.com/weval-org/dtef/internal/models"
)

// ModelScore is a model's mean coverage score over the prompts graded in one
// run.
type ModelScore struct {
	AvgScore    float64
	PromptCount int
}

// ExtractScores returns the per-model mean coverage score of one record. A
// record without a score table yields an empty map. Entries that are missing,
// errored, non-finite or outside [0, 1] do not count towards the mean, and
// models in excluded are skipped.
func ExtractScores(rec *models.EvaluationRunRecord, excluded []string) map[string]ModelScore {
	out := make(map[string]ModelScore)
	if rec == nil || rec.EvaluationResults == nil {
		return out
	}

	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	type sum struct {
		total float64
		n     int
	}
	sums := make(map[string]*sum)
	for _, byModel := range rec.EvaluationResults.LLMCoverageScores {
		for modelID, cs := range byModel {
			if modelID == "" || skip[modelID] {
				continue
			}
			v, ok := coverageValue(cs)
			if !ok {
				continue
			}
			s := sums[modelID]
			if s == nil {
				s = &sum{}
				sums[modelID] = s
			}
			s.total += v
			s.n++
		}
	}

	for modelID, s := range sums {
		out[modelID] = ModelScore{
			AvgScore:    s.total / float64(s.n),
			PromptCount: s.n,
		}
	}
	return out
}

func coverageValue(cs *models.CoverageScore) (float64, bool) {
	if cs == nil || cs.Error != "" || cs.AvgCoverageExtent == nil {
		return 0, false
	}
	v := *cs.AvgCoverageExtent
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return 0, false
	}
	return v, true
}
