package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"pricelens/internal/config"
	"pricelens/internal/validation"
	"pricelens/pkg/contracts/domain"
)

// Result bundles the outputs of one pipeline run.
type Result struct {
	Derived domain.DerivedTable
	Report  CleanReport
}

// Pipeline composes the load, clean, filter and derive stages according to
// configuration. One invocation runs start to finish and terminates; there
// is no shared state between runs.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	loader *Loader
}

// New creates a pipeline for the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		loader: NewLoader(logger, cfg.Input.DateLayout),
	}
}

// Run executes the pipeline against the configured input file. The context
// is checked between stages so a cancelled caller does not pay for the
// remaining transforms on large inputs.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if p.cfg.Input.Path == "" {
		return Result{}, fmt.Errorf("no input path configured")
	}
	if err := validation.NewFileValidator(p.logger).ValidateInput(p.cfg.Input.Path); err != nil {
		return Result{}, err
	}

	table, err := p.loader.Load(p.cfg.Input.Path, p.cfg.Input.Sheet)
	if err != nil {
		return Result{}, fmt.Errorf("load %s: %w", p.cfg.Input.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	cleaned, report := Clean(ctx, p.logger, table)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if p.cfg.Pipeline.FromYear != 0 || p.cfg.Pipeline.ToYear != 0 {
		before := cleaned.Len()
		cleaned = FilterYears(cleaned, p.cfg.Pipeline.FromYear, p.cfg.Pipeline.ToYear)
		p.logger.InfoContext(ctx, "applied year filter",
			slog.Int("from_year", p.cfg.Pipeline.FromYear),
			slog.Int("to_year", p.cfg.Pipeline.ToYear),
			slog.Int("rows_before", before),
			slog.Int("rows_after", cleaned.Len()))
	}

	derived := Derive(ctx, p.logger, cleaned, DeriveOptions{
		KeepUndefined: p.cfg.Pipeline.KeepUndefined,
	})

	return Result{Derived: derived, Report: report}, nil
}
