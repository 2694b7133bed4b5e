// Package services holds the application service layer between the batch
// pipeline and the HTTP transport.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pricelens/internal/config"
	"pricelens/internal/correlation"
	"pricelens/internal/pipeline"
	"pricelens/pkg/contracts/domain"
)

// AnalysisService runs the analysis pipeline and serves cached results to
// the HTTP surface. One Refresh populates the cache; reads are concurrent.
type AnalysisService struct {
	cfg    *config.Config
	logger *slog.Logger

	mu       sync.RWMutex
	loaded   bool
	loadedAt time.Time
	derived  domain.DerivedTable
	report   pipeline.CleanReport
	// corr caches the two correlation variants, keyed by the
	// include-price-change flag.
	corr map[bool][]domain.CorrelationEntry
}

// HealthStatus describes the dataset the service is currently holding.
type HealthStatus struct {
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	Rows           int       `json:"rows"`
	IncompleteRows int       `json:"incomplete_rows"`
	LoadedAt       time.Time `json:"loaded_at,omitempty"`
}

// NewAnalysisService creates the service. Call Refresh before serving.
func NewAnalysisService(cfg *config.Config, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		cfg:    cfg,
		logger: logger,
		corr:   make(map[bool][]domain.CorrelationEntry),
	}
}

// Refresh runs the pipeline against the configured input and replaces the
// cached dataset. The API view always drops records with undefined derived
// metrics: NaN has no JSON representation, so the keep-undefined option
// only applies to batch CSV export.
func (s *AnalysisService) Refresh(ctx context.Context) error {
	cfg := *s.cfg
	cfg.Pipeline.KeepUndefined = false

	result, err := pipeline.New(&cfg, s.logger).Run(ctx)
	if err != nil {
		return fmt.Errorf("refresh dataset: %w", err)
	}

	s.mu.Lock()
	s.derived = result.Derived
	s.report = result.Report
	s.corr = make(map[bool][]domain.CorrelationEntry)
	s.loaded = true
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset refreshed",
		slog.String("source", s.cfg.Input.Path),
		slog.Int("rows", result.Derived.Len()))

	return nil
}

// Derived returns the cached derived table.
func (s *AnalysisService) Derived() (domain.DerivedTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return domain.DerivedTable{}, fmt.Errorf("dataset not loaded")
	}
	return s.derived, nil
}

// Report returns the missing-data report of the last refresh.
func (s *AnalysisService) Report() (pipeline.CleanReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return pipeline.CleanReport{}, fmt.Errorf("dataset not loaded")
	}
	return s.report, nil
}

// Correlation returns the long-form correlation matrix for the cached
// dataset, computed on first use per variant and cached afterwards.
func (s *AnalysisService) Correlation(ctx context.Context, includePriceChange bool) ([]domain.CorrelationEntry, error) {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return nil, fmt.Errorf("dataset not loaded")
	}
	if entries, ok := s.corr[includePriceChange]; ok {
		s.mu.RUnlock()
		return entries, nil
	}
	s.mu.RUnlock()

	// Compute under the write lock with a re-check, so concurrent callers
	// for the same variant build the matrix once. The dataset is small
	// enough that holding the lock through the computation is fine.
	s.mu.Lock()
	defer s.mu.Unlock()
	if entries, ok := s.corr[includePriceChange]; ok {
		return entries, nil
	}

	entries := correlation.Matrix(ctx, s.logger, s.derived, correlation.Options{
		IncludePriceChange: includePriceChange,
	})
	s.corr[includePriceChange] = entries
	return entries, nil
}

// Health reports whether a dataset is loaded and how big it is.
func (s *AnalysisService) Health() HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := HealthStatus{
		Status: "empty",
		Source: s.cfg.Input.Path,
	}
	if s.loaded {
		status.Status = "ok"
		status.Rows = s.derived.Len()
		status.IncompleteRows = s.report.IncompleteRows
		status.LoadedAt = s.loadedAt
	}
	return status
}
