package webapi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/weval-org/dtef/internal/aggregation"
	"github.com/weval-org/dtef/internal/models"
)

//go:generate go tool mockgen -source=service.go -destination=mock_source_test.go -package=webapi

// RecordSource provides the current batch of evaluation run records.
type RecordSource interface {
	Records(ctx context.Context) ([]*models.EvaluationRunRecord, error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Source     RecordSource
	Aggregator *aggregation.Aggregator
	// CacheTTL is how long an aggregation is reused. Zero rebuilds on every
	// request.
	CacheTTL time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

// Service builds aggregations from a RecordSource and caches the latest one.
// It is safe for concurrent use; concurrent rebuilds are serialized.
type Service struct {
	source RecordSource
	agg    *aggregation.Aggregator
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	cached   *aggregation.DemographicAggregation
	loadedAt time.Time
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Aggregator == nil {
		cfg.Aggregator = aggregation.New(aggregation.DefaultOptions())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		source: cfg.Source,
		agg:    cfg.Aggregator,
		ttl:    cfg.CacheTTL,
		now:    cfg.Now,
		logger: cfg.Logger,
	}
}

// Aggregation returns the current aggregation, rebuilding it when the
// cached one is older than the TTL or refresh is set.
func (s *Service) Aggregation(ctx context.Context, refresh bool) (*aggregation.DemographicAggregation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !refresh && s.cached != nil && s.ttl > 0 && s.now().Sub(s.loadedAt) < s.ttl {
		aggregationTotal.WithLabelValues("hit").Inc()
		return s.cached, nil
	}

	start := time.Now()
	records, err := s.source.Records(ctx)
	if err != nil {
		aggregationTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("loading records: %w", err)
	}
	result := s.agg.Aggregate(records)
	aggregationDuration.Observe(time.Since(start).Seconds())
	aggregationTotal.WithLabelValues("miss").Inc()
	recordsLoaded.Set(float64(len(records)))
	observeSkipped(result.Skipped)

	s.logger.Info("aggregation rebuilt",
		"records", len(records),
		"results", result.ResultCount,
		"models", len(result.ModelResults),
		"duration", time.Since(start))

	s.cached = result
	s.loadedAt = s.now()
	return result, nil
}
