package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weval-org/dtef/internal/aggregation"
	"github.com/weval-org/dtef/internal/models"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func scoreRecord(configID, segmentID string, scores map[string]float64) *models.EvaluationRunRecord {
	byModel := make(map[string]*models.CoverageScore, len(scores))
	for m, v := range scores {
		byModel[m] = &models.CoverageScore{AvgCoverageExtent: &v}
	}
	return &models.EvaluationRunRecord{
		ConfigID:  configID,
		RunLabel:  "label",
		Timestamp: "2025-05-01T10:00:00Z",
		DTEFContext: &models.DTEFContext{
			SurveyID:  "gd4",
			SegmentID: segmentID,
		},
		EvaluationResults: &models.EvaluationResults{
			LLMCoverageScores: map[string]map[string]*models.CoverageScore{"p1": byModel},
		},
	}
}

func sampleRecords() []*models.EvaluationRunRecord {
	return []*models.EvaluationRunRecord{
		scoreRecord("gd4-c0", "gender:a", map[string]float64{"openai:gpt-4o": 0.9, "anthropic:claude": 0.6, "x:small": 0.2}),
		scoreRecord("gd4-c5", "gender:b", map[string]float64{"openai:gpt-4o": 0.5, "anthropic:claude": 0.55, "x:small": 0.2}),
	}
}

func newTestService(src RecordSource, ttl time.Duration) *Service {
	opts := aggregation.DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return NewService(ServiceConfig{
		Source:     src,
		Aggregator: aggregation.New(opts),
		CacheTTL:   ttl,
		Now:        func() time.Time { return fixedNow },
	})
}

func newTestMux(t *testing.T, records []*models.EvaluationRunRecord) *http.ServeMux {
	t.Helper()
	ctrl := gomock.NewController(t)
	src := NewMockRecordSource(ctrl)
	src.EXPECT().Records(gomock.Any()).Return(records, nil).AnyTimes()

	mux := http.NewServeMux()
	RegisterRoutes(mux, newTestService(src, time.Minute))
	return mux
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(newTestService(nil, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	h.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Version == "" {
		t.Error("expected non-empty version")
	}
}

func TestHandleAggregation(t *testing.T) {
	mux := newTestMux(t, sampleRecords())

	rec := get(t, mux, "/api/aggregation")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp aggregation.DemographicAggregation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "gd4", resp.SurveyID)
	assert.Equal(t, 2, resp.ResultCount)
	require.Len(t, resp.ModelResults, 3)
	assert.Equal(t, "openai:gpt-4o", resp.ModelResults[0].ModelID)
	assert.NotNil(t, resp.ContextAnalysis)
}

func TestHandleAggregationEmpty(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := get(t, mux, "/api/aggregation")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, rec.Body.Bytes(), "modelResults")))
	assert.JSONEq(t, `[]`, string(mustField(t, rec.Body.Bytes(), "disparities")))
}

func TestHandleAggregationSourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockRecordSource(ctrl)
	src.EXPECT().Records(gomock.Any()).Return(nil, errors.New("disk on fire"))

	mux := http.NewServeMux()
	RegisterRoutes(mux, newTestService(src, time.Minute))

	rec := get(t, mux, "/api/aggregation")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "disk on fire")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestHandleFairness(t *testing.T) {
	mux := newTestMux(t, sampleRecords())

	rec := get(t, mux, "/api/aggregation/fairness")
	require.Equal(t, http.StatusOK, rec.Code)
	var all FairnessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	require.Len(t, all.Concerns, 3)
	assert.Equal(t, "openai:gpt-4o", all.Concerns[0].ModelID)
	assert.InDelta(t, 0.4, all.Concerns[0].Gap, 1e-9)
	assert.True(t, fixedNow.Equal(all.AggregatedAt))

	rec = get(t, mux, "/api/aggregation/fairness?minGap=0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	var big FairnessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&big))
	require.Len(t, big.Concerns, 1)
	assert.InDelta(t, 0.1, big.MinGap, 1e-9)
}

func TestHandleFairnessBadParams(t *testing.T) {
	mux := newTestMux(t, sampleRecords())

	for _, target := range []string{
		"/api/aggregation/fairness?minGap=abc",
		"/api/aggregation/fairness?minGap=-0.2",
		"/api/aggregation/fairness?minGap=NaN",
		"/api/aggregation/fairness?refresh=maybe",
	} {
		rec := get(t, mux, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandleTopModels(t *testing.T) {
	mux := newTestMux(t, sampleRecords())

	rec := get(t, mux, "/api/aggregation/top-models?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TopModelsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Models, 2)
	assert.Equal(t, "gpt-4o", resp.Models[0].ModelName)
	assert.Equal(t, "claude", resp.Models[1].ModelName)

	rec = get(t, mux, "/api/aggregation/top-models?limit=0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Models, 3)

	rec = get(t, mux, "/api/aggregation/top-models?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = get(t, mux, "/api/aggregation/top-models?limit=ten")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRoutes(t *testing.T) {
	mux := newTestMux(t, sampleRecords())

	for _, path := range []string{
		"/api/health",
		"/api/aggregation",
		"/api/aggregation/fairness",
		"/api/aggregation/top-models",
	} {
		rec := get(t, mux, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 from %s, got %d", path, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/aggregation", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("no origins configured means no CORS header", func(t *testing.T) {
		handler := CORSMiddleware(inner)
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://evil.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("expected no CORS header when no origins configured")
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("allowed origin gets CORS header", func(t *testing.T) {
		handler := CORSMiddleware(inner, "http://localhost:5173")
		req := httptest.NewRequest(http.MethodGet, "/api/aggregation", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("expected CORS header for allowed origin")
		}
	})

	t.Run("disallowed origin gets no CORS header", func(t *testing.T) {
		handler := CORSMiddleware(inner, "http://localhost:5173")
		req := httptest.NewRequest(http.MethodGet, "/api/aggregation", nil)
		req.Header.Set("Origin", "http://evil.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("expected no CORS header for disallowed origin")
		}
	})

	t.Run("OPTIONS preflight", func(t *testing.T) {
		handler := CORSMiddleware(inner, "http://localhost:5173")
		req := httptest.NewRequest(http.MethodOptions, "/api/aggregation", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204 for OPTIONS, got %d", rec.Code)
		}
	})
}

func mustField(t *testing.T, body []byte, name string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	v, ok := m[name]
	require.True(t, ok, "missing field %q", name)
	return v
}
