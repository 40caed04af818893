package webapi

import (
	"time"

	"github.com/weval-org/dtef/internal/aggregation"
)

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// FairnessResponse lists the within-category gaps at or above MinGap.
type FairnessResponse struct {
	SurveyID     string                        `json:"surveyId"`
	AggregatedAt time.Time                     `json:"aggregatedAt"`
	MinGap       float64                       `json:"minGap"`
	Concerns     []aggregation.FairnessConcern `json:"concerns"`
}

// TopModelsResponse lists the best models by overall score.
type TopModelsResponse struct {
	SurveyID     string                 `json:"surveyId"`
	AggregatedAt time.Time              `json:"aggregatedAt"`
	Models       []aggregation.TopModel `json:"models"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
