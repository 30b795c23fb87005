package services

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tracelens/trace-diag/internal/diag"
	"github.com/tracelens/trace-diag/internal/loader"
	"github.com/tracelens/trace-diag/internal/metrics"
	"github.com/tracelens/trace-diag/internal/models"
	"github.com/tracelens/trace-diag/internal/patterns"
	"github.com/tracelens/trace-diag/internal/utils"
	"github.com/tracelens/trace-diag/pkg/cache"
)

// ReportStore defines the persistence operations the service requires.
type ReportStore interface {
	SaveReport(ctx context.Context, report models.Report) error
	GetReport(ctx context.Context, id string) (models.Report, error)
	ListReports(ctx context.Context, limit int) ([]models.ReportSummary, error)
	RecentReports(ctx context.Context, limit int) ([]models.Report, error)
}

// AnalysisService bridges the HTTP surface to the loader, the
// diagnostic pipeline, and report history.
type AnalysisService struct {
	logger    *slog.Logger
	pipeline  *diag.Pipeline
	store     ReportStore
	cache     *cache.ReportCache
	miner     *patterns.Miner
	latencies *utils.LatencyTracker
}

// NewAnalysisService constructs the service facade. The store and
// cache may be nil; analysis still works, history and memoization are
// simply disabled.
func NewAnalysisService(logger *slog.Logger, pipeline *diag.Pipeline, store ReportStore, reportCache *cache.ReportCache) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		logger:    logger,
		pipeline:  pipeline,
		store:     store,
		cache:     reportCache,
		miner:     patterns.NewMiner(logger),
		latencies: utils.NewLatencyTracker(1024),
	}
}

// AnalyzeHAR parses an uploaded HAR payload, runs one analysis, and
// persists the resulting report. Identical payloads are served from
// the report cache when one is configured.
func (s *AnalysisService) AnalyzeHAR(ctx context.Context, payload []byte) (models.Report, error) {
	digest := loader.Digest(payload)
	if s.cache != nil {
		if report, ok := s.cache.Get(digest); ok {
			s.logger.Debug("report cache hit", slog.String("digest", digest))
			return report, nil
		}
	}

	raw, err := loader.ParseHAR(bytes.NewReader(payload))
	if err != nil {
		return models.Report{}, err
	}

	start := time.Now()
	report, err := s.pipeline.Analyze(ctx, raw)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError)
		return models.Report{}, utils.NewAppError("services.AnalyzeHAR", "analysis failed", err)
	}

	report.ReportID = uuid.NewString()
	report.CreatedAt = time.Now().UTC()
	report.TraceDigest = digest

	s.latencies.Observe(duration)
	metrics.ObserveAnalysis(duration, metrics.OutcomeSuccess)
	metrics.CountFindings(report.Findings)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency",
			slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}

	if s.store != nil {
		if err := s.store.SaveReport(ctx, report); err != nil {
			s.logger.Warn("failed to persist report", slog.Any("error", err))
		}
	}
	if s.cache != nil {
		s.cache.Set(digest, report)
	}
	return report, nil
}

// GetReport fetches a stored report by ID.
func (s *AnalysisService) GetReport(ctx context.Context, id string) (models.Report, error) {
	if s.store == nil {
		return models.Report{}, utils.NewAppError("services.GetReport", "report history not configured", nil)
	}
	return s.store.GetReport(ctx, id)
}

// ListReports lists stored report summaries, newest first.
func (s *AnalysisService) ListReports(ctx context.Context, limit int) ([]models.ReportSummary, error) {
	if s.store == nil {
		return nil, utils.NewAppError("services.ListReports", "report history not configured", nil)
	}
	return s.store.ListReports(ctx, limit)
}

// RecurringFindings mines recent reports for findings that keep
// showing up across sessions.
func (s *AnalysisService) RecurringFindings(ctx context.Context, limit int) ([]models.RecurringFinding, error) {
	if s.store == nil {
		return nil, utils.NewAppError("services.RecurringFindings", "report history not configured", nil)
	}
	reports, err := s.store.RecentReports(ctx, limit)
	if err != nil {
		return nil, utils.NewAppError("services.RecurringFindings", "load recent reports", err)
	}
	return s.miner.Mine(reports), nil
}

// LatencyP95 returns the current p95 analysis latency.
func (s *AnalysisService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}
