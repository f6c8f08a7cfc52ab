package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

const (
	opdAnalyticsKey = "analytics:opd"
	gcoAnalyticsKey = "analytics:gco"
	infAnalyticsKey = "analytics:inf"
)

type analyticsStore interface {
	OPDSummary(ctx context.Context) (*models.OPDAnalytics, error)
	GCOSummary(ctx context.Context) (*models.GCOAnalytics, error)
	INFSummary(ctx context.Context) (*models.INFAnalytics, error)
}

// AnalyticsService serves the per-office dashboard summaries with a short
// cache in front since the counts change far slower than they are polled.
type AnalyticsService struct {
	repo   analyticsStore
	cache  cacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(repo analyticsStore, cache cacheStore, ttl time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// OPDSummary returns discipline dashboard counts.
func (s *AnalyticsService) OPDSummary(ctx context.Context) (*models.OPDAnalytics, error) {
	var summary models.OPDAnalytics
	if s.cached(ctx, opdAnalyticsKey, &summary) {
		return &summary, nil
	}

	fresh, err := s.repo.OPDSummary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "ANALYTICS_FAILED", 500, "failed to compute case analytics")
	}
	s.store(ctx, opdAnalyticsKey, fresh)
	return fresh, nil
}

// GCOSummary returns guidance dashboard counts.
func (s *AnalyticsService) GCOSummary(ctx context.Context) (*models.GCOAnalytics, error) {
	var summary models.GCOAnalytics
	if s.cached(ctx, gcoAnalyticsKey, &summary) {
		return &summary, nil
	}

	fresh, err := s.repo.GCOSummary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "ANALYTICS_FAILED", 500, "failed to compute counseling analytics")
	}
	s.store(ctx, gcoAnalyticsKey, fresh)
	return fresh, nil
}

// INFSummary returns infirmary dashboard counts.
func (s *AnalyticsService) INFSummary(ctx context.Context) (*models.INFAnalytics, error) {
	var summary models.INFAnalytics
	if s.cached(ctx, infAnalyticsKey, &summary) {
		return &summary, nil
	}

	fresh, err := s.repo.INFSummary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "ANALYTICS_FAILED", 500, "failed to compute medical analytics")
	}
	s.store(ctx, infAnalyticsKey, fresh)
	return fresh, nil
}

func (s *AnalyticsService) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *AnalyticsService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}
