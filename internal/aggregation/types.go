package aggregation

import (
	"time"

	"github.com/weval-org/dtef/internal/segments"
	"github.com/weval-org/dtef/internal/statistics"
)

// RunScore is one (model, segment) observation from one run.
type RunScore struct {
	Score       float64 `json:"score"`
	PromptCount int     `json:"promptCount"`
	// ContextCount is nil when the number of context questions could not be
	// resolved for the run.
	ContextCount *int   `json:"contextCount"`
	ConfigID     string `json:"configId"`
	RunLabel     string `json:"runLabel"`
	Timestamp    string `json:"timestamp"`
}

// SegmentModelScore is the representative observation for a (model, segment)
// pair: the run with the most context questions, plus every run of the pair
// ordered by score descending.
type SegmentModelScore struct {
	ModelID      string            `json:"modelId"`
	SegmentID    string            `json:"segmentId"`
	SegmentLabel string            `json:"segmentLabel"`
	Category     segments.Category `json:"category"`
	// SegmentAttributes is the attribute map of the first run seen for the
	// segment.
	SegmentAttributes map[string]string `json:"segmentAttributes,omitempty"`
	RunScore
	AllRuns []RunScore `json:"allRuns"`
}

// SegmentRef names a segment and the score it achieved.
type SegmentRef struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AggregatedModelResult is the headline result for one model.
type AggregatedModelResult struct {
	ModelID       string  `json:"modelId"`
	ModelName     string  `json:"modelName"`
	OverallScore  float64 `json:"overallScore"`
	SegmentCount  int     `json:"segmentCount"`
	TotalPrompts  int     `json:"totalPrompts"`
	SegmentStdDev float64 `json:"segmentStdDev"`

	ScoreCI         *statistics.ConfidenceInterval `json:"scoreCI,omitempty"`
	BestSegment     *SegmentRef                    `json:"bestSegment,omitempty"`
	WorstSegment    *SegmentRef                    `json:"worstSegment,omitempty"`
	LastEvaluatedAt *time.Time                     `json:"lastEvaluatedAt,omitempty"`
	SegmentScores   []SegmentModelScore            `json:"segmentScores"`
}

// StrataDisparityEntry is the gap between the best- and worst-scoring
// segment of one category for one model.
type StrataDisparityEntry struct {
	ModelID       string            `json:"modelId"`
	Category      segments.Category `json:"category"`
	CategoryLabel string            `json:"categoryLabel"`
	SegmentCount  int               `json:"segmentCount"`
	AbsoluteGap   float64           `json:"absoluteGap"`
	BestSegment   SegmentRef        `json:"bestSegment"`
	WorstSegment  SegmentRef        `json:"worstSegment"`
}

// LeaderboardEntry is one row of the model leaderboard.
type LeaderboardEntry struct {
	ModelID            string     `json:"modelId"`
	ModelName          string     `json:"modelName"`
	OverallScore       float64    `json:"overallScore"`
	SegmentsEvaluated  int        `json:"segmentsEvaluated"`
	QuestionsEvaluated int        `json:"questionsEvaluated"`
	LastEvaluatedAt    *time.Time `json:"lastEvaluatedAt,omitempty"`
}

// ContextDataPoint is one point on a segment's accuracy-vs-context curve.
type ContextDataPoint struct {
	ContextCount int     `json:"contextCount"`
	Score        float64 `json:"score"`
	ConfigID     string  `json:"configId,omitempty"`
	RunLabel     string  `json:"runLabel,omitempty"`
	Timestamp    string  `json:"timestamp,omitempty"`
}

// SegmentResponsiveness is the fitted trend for one (model, segment) pair.
type SegmentResponsiveness struct {
	SegmentID  string             `json:"segmentId"`
	Category   segments.Category  `json:"category"`
	DataPoints []ContextDataPoint `json:"dataPoints"`
	Slope      float64            `json:"slope"`
	// NormalizedGain compares the mean score at the lowest and highest
	// context level observed for the segment.
	NormalizedGain float64 `json:"normalizedGain"`
}

// ModelResponsiveness summarizes how strongly a model's accuracy follows the
// number of context questions.
type ModelResponsiveness struct {
	ModelID               string                        `json:"modelId"`
	OverallSlope          float64                       `json:"overallSlope"`
	CategorySlopes        map[segments.Category]float64 `json:"categorySlopes,omitempty"`
	SegmentResponsiveness []SegmentResponsiveness       `json:"segmentResponsiveness"`
}

// ContextAnalysis is present only when the batch holds at least two distinct
// resolved context levels.
type ContextAnalysis struct {
	Models             []ModelResponsiveness `json:"models"`
	ContextLevelsFound []int                 `json:"contextLevelsFound"`
}

// SkipStats counts records left out of some or all of the analysis.
type SkipStats struct {
	// NoContext records carried no usable segment context and were dropped.
	NoContext int `json:"noContext"`
	// NoScores records were eligible but had an empty or missing score table.
	NoScores int `json:"noScores"`
	// UnresolvedContext records were aggregated but left out of the
	// context-responsiveness analysis.
	UnresolvedContext int `json:"unresolvedContext"`
}

// DemographicAggregation is the engine's output. It is built fresh on every
// call and is not modified afterwards.
type DemographicAggregation struct {
	SurveyID        string                  `json:"surveyId"`
	AggregatedAt    time.Time               `json:"aggregatedAt"`
	ResultCount     int                     `json:"resultCount"`
	ModelResults    []AggregatedModelResult `json:"modelResults"`
	Disparities     []StrataDisparityEntry  `json:"disparities"`
	Leaderboard     []LeaderboardEntry      `json:"leaderboard"`
	ContextAnalysis *ContextAnalysis        `json:"contextAnalysis,omitempty"`
	Skipped         SkipStats               `json:"skipped"`
}
