package webapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// DefaultTopModelsLimit is used when /api/aggregation/top-models has no limit.
const DefaultTopModelsLimit = 10

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	svc *Service
}

// NewHandlers creates a new Handlers backed by svc.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleAggregation returns the full demographic aggregation. Pass
// ?refresh=true to bypass the cache.
func (h *Handlers) HandleAggregation(w http.ResponseWriter, r *http.Request) {
	refresh, err := boolParam(r, "refresh")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	agg, err := h.svc.Aggregation(r.Context(), refresh)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// HandleFairness returns the fairness concerns with a gap of at least
// ?minGap (default 0).
func (h *Handlers) HandleFairness(w http.ResponseWriter, r *http.Request) {
	minGap := 0.0
	if v := r.URL.Query().Get("minGap"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid minGap %q", v))
			return
		}
		minGap = f
	}
	refresh, err := boolParam(r, "refresh")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agg, err := h.svc.Aggregation(r.Context(), refresh)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, FairnessResponse{
		SurveyID:     agg.SurveyID,
		AggregatedAt: agg.AggregatedAt,
		MinGap:       minGap,
		Concerns:     agg.FairnessConcerns(minGap),
	})
}

// HandleTopModels returns the best ?limit models (default 10, 0 for all).
func (h *Handlers) HandleTopModels(w http.ResponseWriter, r *http.Request) {
	limit := DefaultTopModelsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	refresh, err := boolParam(r, "refresh")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agg, err := h.svc.Aggregation(r.Context(), refresh)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, TopModelsResponse{
		SurveyID:     agg.SurveyID,
		AggregatedAt: agg.AggregatedAt,
		Models:       agg.TopModels(limit),
	})
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, svc *Service) {
	h := NewHandlers(svc)
	mux.Handle("GET /api/health", instrument("/api/health", h.HandleHealth))
	mux.Handle("GET /api/aggregation", instrument("/api/aggregation", h.HandleAggregation))
	mux.Handle("GET /api/aggregation/fairness", instrument("/api/aggregation/fairness", h.HandleFairness))
	mux.Handle("GET /api/aggregation/top-models", instrument("/api/aggregation/top-models", h.HandleTopModels))
}

func instrument(route string, fn http.HandlerFunc) http.Handler {
	obs := httpRequestDuration.MustCurryWith(prometheus.Labels{"route": route})
	return promhttp.InstrumentHandlerDuration(obs, fn)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, v)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
