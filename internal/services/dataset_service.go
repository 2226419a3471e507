package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"geoviz-platform/internal/models"
	"geoviz-platform/internal/parser"
	"geoviz-platform/pkg/logging"
	"geoviz-platform/pkg/metrics"
)

// ErrNoDataset is returned when an operation needs a dataset kind that has
// not been loaded (or whose last load failed).
var ErrNoDataset = errors.New("no dataset loaded")

// DatasetService owns the in-memory session state: at most one dataset per
// kind plus the current thresholds. Datasets are replaced wholesale on each
// load; nothing survives a process restart.
type DatasetService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu         sync.RWMutex
	datasets   map[models.DatasetKind]*models.Dataset
	thresholds models.ThresholdConfig
}

// NewDatasetService creates a dataset service seeded with the given
// threshold limits.
func NewDatasetService(thresholds models.ThresholdConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DatasetService {
	return &DatasetService{
		logger:     logger,
		metrics:    metricsCollector,
		datasets:   make(map[models.DatasetKind]*models.Dataset),
		thresholds: thresholds,
	}
}

// LoadDataset parses raw delimited text and installs it as the current
// dataset of the given kind, replacing any previous one.
//
// Loads are all-or-nothing: on a parse failure the previous dataset of that
// kind is cleared, not kept, so the session never shows stale rows next to a
// failed upload ("clear on new failed load").
func (s *DatasetService) LoadDataset(ctx context.Context, kind models.DatasetKind, name string, r io.Reader) (*models.Dataset, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown dataset kind: %q", kind)
	}

	startTime := time.Now()

	records, columns, err := parser.Parse(r)
	s.metrics.ParseDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		s.mu.Lock()
		delete(s.datasets, kind)
		s.mu.Unlock()

		s.metrics.RecordParseError(string(kind))
		s.metrics.RecordDatasetLoad(string(kind), "failed", 0)
		s.logger.Error(ctx, "[DATASET_LOAD_ERROR] File could not be parsed, dataset cleared", logging.Fields{
			"kind": string(kind),
			"name": name,
		}, err)
		return nil, err
	}

	ds := &models.Dataset{
		ID:       uuid.New(),
		Name:     name,
		Kind:     kind,
		Columns:  columns,
		Records:  records,
		LoadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.datasets[kind] = ds
	s.mu.Unlock()

	s.metrics.ParseRowsTotal.Add(float64(len(records)))
	s.metrics.RecordDatasetLoad(string(kind), "success", len(records))
	s.logger.Info(ctx, "[DATASET_LOADED] Dataset replaced", logging.Fields{
		"kind":       string(kind),
		"name":       name,
		"dataset_id": ds.ID.String(),
		"rows":       len(records),
		"columns":    len(columns),
	})

	return ds, nil
}

// Dataset returns the current dataset of the given kind.
func (s *DatasetService) Dataset(kind models.DatasetKind) (*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[kind]
	if !ok {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// Thresholds returns the current alert limits.
func (s *DatasetService) Thresholds() models.ThresholdConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// SetThresholds applies a partial update: only the fields present in the
// patch change. Limits never reset on their own and accept any real value.
func (s *DatasetService) SetThresholds(ctx context.Context, patch models.ThresholdPatch) models.ThresholdConfig {
	s.mu.Lock()
	s.thresholds = patch.Apply(s.thresholds)
	updated := s.thresholds
	s.mu.Unlock()

	s.logger.Info(ctx, "[THRESHOLDS_UPDATED] Alert limits changed", logging.Fields{
		"rain": updated.Rain,
		"disp": updated.Disp,
		"pore": updated.Pore,
	})

	return updated
}
