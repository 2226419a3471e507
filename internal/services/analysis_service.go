package services

import (
	"context"
	"time"

	"geoviz-platform/internal/analysis"
	"geoviz-platform/internal/models"
	"geoviz-platform/pkg/logging"
	"geoviz-platform/pkg/metrics"
)

// AnalysisService derives summaries, correlations, and alerts from the
// current session state. Every call recomputes from the records held by the
// dataset service; nothing is cached, so derived values always reflect the
// latest load and the latest thresholds.
type AnalysisService struct {
	store   *DatasetService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(store *DatasetService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalysisService {
	return &AnalysisService{
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Summarize returns a StatSummary per numeric column of the given dataset.
func (s *AnalysisService) Summarize(ctx context.Context, kind models.DatasetKind) (map[string]*models.StatSummary, error) {
	ds, err := s.store.Dataset(kind)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	summary := analysis.Describe(ds.Records, ds.Columns)
	s.metrics.ObserveAnalysis("describe", time.Since(startTime).Seconds())

	s.logger.Debug(ctx, "[ANALYSIS_DESCRIBE] Column summaries computed", logging.Fields{
		"kind":            string(kind),
		"numeric_columns": len(summary),
	})

	return summary, nil
}

// Correlations returns pairwise Pearson coefficients over the numeric
// columns of the given dataset. Undefined pairs are omitted.
func (s *AnalysisService) Correlations(ctx context.Context, kind models.DatasetKind) ([]analysis.Correlation, error) {
	ds, err := s.store.Dataset(kind)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	matrix := analysis.CorrelationMatrix(ds.Records, ds.Columns)
	s.metrics.ObserveAnalysis("correlations", time.Since(startTime).Seconds())

	return matrix, nil
}

// Alerts returns the monitoring records exceeding the current thresholds,
// in original row order.
func (s *AnalysisService) Alerts(ctx context.Context) ([]models.Record, error) {
	ds, err := s.store.Dataset(models.DatasetMonitoring)
	if err != nil {
		return nil, err
	}
	thresholds := s.store.Thresholds()

	startTime := time.Now()
	alerts := analysis.FilterAlerts(ds.Records, thresholds)
	s.metrics.ObserveAnalysis("alerts", time.Since(startTime).Seconds())
	s.metrics.AlertsFlagged.Set(float64(len(alerts)))

	s.logger.Debug(ctx, "[ANALYSIS_ALERTS] Alert scan completed", logging.Fields{
		"rows":    len(ds.Records),
		"flagged": len(alerts),
	})

	return alerts, nil
}

// Status compares each monitored field's maximum to its threshold.
func (s *AnalysisService) Status(ctx context.Context) ([]analysis.FieldStatus, error) {
	ds, err := s.store.Dataset(models.DatasetMonitoring)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	report := analysis.StatusReport(ds.Records, s.store.Thresholds())
	s.metrics.ObserveAnalysis("status", time.Since(startTime).Seconds())

	return report, nil
}

// Records returns a page of the dataset's rows with timestamps normalized
// to calendar dates for display ordering, plus the total row count.
func (s *AnalysisService) Records(ctx context.Context, kind models.DatasetKind, limit, offset int) ([]models.Record, int, error) {
	ds, err := s.store.Dataset(kind)
	if err != nil {
		return nil, 0, err
	}

	total := len(ds.Records)
	if offset >= total {
		return []models.Record{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	page := analysis.NormalizeTimestamps(ds.Records[offset:end])
	return page, total, nil
}
