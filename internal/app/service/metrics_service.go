package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nomination_ledger/internal/app/metrics"
	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/domain/repository"
)

// NominationReader is the read side the dashboards aggregate over.
type NominationReader interface {
	ListAll(ctx context.Context) ([]model.NominationDetail, error)
	ListRecent(ctx context.Context, limit int) ([]model.NominationDetail, error)
}

// MetricsService computes dashboard aggregates and keeps the latest
// snapshot. Refresh is idempotent: every trigger (change event, ticker,
// manual reload) calls the same method.
type MetricsService struct {
	judges        repository.JudgeRepository
	categories    repository.CategoryRepository
	nominations   NominationReader
	activityLimit int
	logger        *slog.Logger
	now           func() time.Time

	mu     sync.RWMutex
	latest *model.MetricsSnapshot
}

func NewMetricsService(
	judges repository.JudgeRepository,
	categories repository.CategoryRepository,
	nominations NominationReader,
	activityLimit int,
	logger *slog.Logger,
) *MetricsService {
	if activityLimit <= 0 {
		activityLimit = metrics.DefaultActivityLimit
	}
	return &MetricsService{
		judges:        judges,
		categories:    categories,
		nominations:   nominations,
		activityLimit: activityLimit,
		logger:        common.ResolveLogger(logger),
		now:           time.Now,
	}
}

// Refresh recomputes the snapshot from the store. A slower refresh that
// finishes after a newer one does not replace it.
func (s *MetricsService) Refresh(ctx context.Context) (model.MetricsSnapshot, error) {
	started := s.now()

	totalJudges, err := s.judges.Count(ctx)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}
	rows, err := s.nominations.ListAll(ctx)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}
	recent, err := s.nominations.ListRecent(ctx, s.activityLimit)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}

	snap := metrics.Snapshot(totalJudges, categories, rows, recent, s.activityLimit, started)

	s.mu.Lock()
	if s.latest == nil || !snap.GeneratedAt.Before(s.latest.GeneratedAt) {
		s.latest = &snap
	} else {
		snap = *s.latest
	}
	s.mu.Unlock()

	s.logger.Debug("metrics refreshed",
		"event", "metrics_refreshed",
		"total_votes", snap.Global.TotalVotes,
		"duration_ms", s.now().Sub(started).Milliseconds(),
	)
	return snap, nil
}

// Current returns the cached snapshot, computing one on first use.
func (s *MetricsService) Current(ctx context.Context) (model.MetricsSnapshot, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return *latest, nil
	}
	return s.Refresh(ctx)
}

func (s *MetricsService) Global(ctx context.Context) (model.GlobalStats, error) {
	totalJudges, err := s.judges.Count(ctx)
	if err != nil {
		return model.GlobalStats{}, err
	}
	rows, err := s.nominations.ListAll(ctx)
	if err != nil {
		return model.GlobalStats{}, err
	}
	return metrics.Global(totalJudges, rows), nil
}

func (s *MetricsService) Categories(ctx context.Context) ([]model.CategoryMetrics, error) {
	categories, rows, err := s.categoriesAndRows(ctx)
	if err != nil {
		return nil, err
	}
	return metrics.ByCategory(categories, rows), nil
}

func (s *MetricsService) TopProjects(ctx context.Context) ([]model.CategoryTop, error) {
	categories, rows, err := s.categoriesAndRows(ctx)
	if err != nil {
		return nil, err
	}
	return metrics.TopProjects(categories, rows, metrics.TopPerCategory), nil
}

// Activity returns the newest limit nominations; limit <= 0 uses the
// configured default.
func (s *MetricsService) Activity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = s.activityLimit
	}
	recent, err := s.nominations.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return metrics.Activity(recent, limit, s.now()), nil
}

func (s *MetricsService) categoriesAndRows(ctx context.Context) ([]model.Category, []model.NominationDetail, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.nominations.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	return categories, rows, nil
}
