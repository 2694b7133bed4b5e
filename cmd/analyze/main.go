// Command analyze runs the price analysis pipeline once and writes the
// derived dataset and correlation matrix as CSV reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"pricelens/internal/config"
	"pricelens/internal/correlation"
	"pricelens/internal/exporter"
	"pricelens/internal/infrastructure"
	"pricelens/internal/pipeline"
	"pricelens/internal/validation"
)

func main() {
	input := flag.String("input", "", "price history file (.csv or .xlsx)")
	sheet := flag.String("sheet", "", "workbook sheet name for xlsx input (default: detect by header)")
	dateLayout := flag.String("date-layout", "", "Go reference layout for the Date column (default from config)")
	fromYear := flag.Int("from", 0, "first year to keep, inclusive (0 disables the filter)")
	toYear := flag.Int("to", 0, "last year to keep, inclusive (0 disables the filter)")
	out := flag.String("out", "", "output directory for reports (default from config)")
	priceChange := flag.Bool("price-change", false, "include Price_Change in the correlation matrix")
	keepUndefined := flag.Bool("keep-undefined", false, "keep rows whose derived metrics are undefined")
	configFile := flag.String("config", "", "path to config file (defaults to config.yaml if present)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	applyFlags(cfg, *input, *sheet, *dateLayout, *fromYear, *toYear, *out, *priceChange, *keepUndefined)

	if cfg.Input.Path == "" {
		fmt.Fprintln(os.Stderr, "no input file: pass -input or set input.path in the config")
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Analysis failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, input, sheet, dateLayout string, fromYear, toYear int, out string, priceChange, keepUndefined bool) {
	if input != "" {
		cfg.Input.Path = input
	}
	if sheet != "" {
		cfg.Input.Sheet = sheet
	}
	if dateLayout != "" {
		cfg.Input.DateLayout = dateLayout
	}
	if fromYear != 0 {
		cfg.Pipeline.FromYear = fromYear
	}
	if toYear != 0 {
		cfg.Pipeline.ToYear = toYear
	}
	if out != "" {
		cfg.Output.Dir = out
	}
	if priceChange {
		cfg.Pipeline.IncludePriceChange = true
	}
	if keepUndefined {
		cfg.Pipeline.KeepUndefined = true
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting analysis",
		slog.String("input", cfg.Input.Path),
		slog.String("output_dir", cfg.Output.Dir),
		slog.Int("from_year", cfg.Pipeline.FromYear),
		slog.Int("to_year", cfg.Pipeline.ToYear))

	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(cfg.Output.Dir); err != nil {
		return err
	}

	result, err := pipeline.New(cfg, logger).Run(ctx)
	if err != nil {
		return err
	}

	report := result.Report
	fmt.Printf("Loaded %d rows from %s\n", report.TotalRows, cfg.Input.Path)
	fmt.Printf("Kept %d complete rows (%d incomplete, %d missing cells)\n",
		report.RowsKept, report.IncompleteRows, report.MissingCells)
	fmt.Printf("Derived %d rows\n", result.Derived.Len())

	entries := correlation.Matrix(ctx, logger, result.Derived, correlation.Options{
		IncludePriceChange: cfg.Pipeline.IncludePriceChange,
	})

	reports := exporter.NewReportExporter(cfg.Output.Dir)
	if err := reports.ExportDerived(result.Derived, "derived.csv"); err != nil {
		return fmt.Errorf("write derived report: %w", err)
	}
	if err := reports.ExportCorrelation(entries, "correlation.csv"); err != nil {
		return fmt.Errorf("write correlation report: %w", err)
	}

	fmt.Printf("Reports written to %s\n", cfg.Output.Dir)
	logger.Info("Analysis complete",
		slog.Int("derived_rows", result.Derived.Len()),
		slog.Int("correlation_entries", len(entries)))
	return nil
}
