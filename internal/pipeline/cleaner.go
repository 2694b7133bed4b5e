package pipeline

import (
	"context"
	"log/slog"
	"math"

	"pricelens/pkg/contracts/domain"
)

// CleanReport summarizes what the cleaner found and removed. It is both the
// structured diagnostics payload and the value handed back to callers.
type CleanReport struct {
	TotalRows       int            `json:"total_rows"`
	RowsKept        int            `json:"rows_kept"`
	IncompleteRows  int            `json:"incomplete_rows"`
	MissingCells    int            `json:"missing_cells"`
	MissingByColumn map[string]int `json:"missing_by_column"`
}

// Clean identifies records with any missing field (NaN numeric cell or zero
// date), removes them, and reports the counts. No imputation happens here:
// incomplete records are dropped, complete ones pass through untouched.
func Clean(ctx context.Context, logger *slog.Logger, t domain.PriceTable) (domain.PriceTable, CleanReport) {
	if logger == nil {
		logger = slog.Default()
	}

	columns := t.Columns()
	report := CleanReport{
		TotalRows:       t.Len(),
		MissingByColumn: make(map[string]int, len(columns)+1),
	}

	out := domain.PriceTable{
		Records:      make([]domain.PriceRecord, 0, t.Len()),
		ExtraColumns: t.ExtraColumns,
	}

	for _, rec := range t.Records {
		complete := true
		if rec.Date.IsZero() {
			report.MissingByColumn["Date"]++
			report.MissingCells++
			complete = false
		}
		for _, col := range columns {
			if math.IsNaN(rec.Field(col)) {
				report.MissingByColumn[col]++
				report.MissingCells++
				complete = false
			}
		}
		if complete {
			out.Records = append(out.Records, rec)
		} else {
			report.IncompleteRows++
		}
	}
	report.RowsKept = out.Len()

	logger.InfoContext(ctx, "cleaned price table",
		slog.Int("total_rows", report.TotalRows),
		slog.Int("rows_kept", report.RowsKept),
		slog.Int("incomplete_rows", report.IncompleteRows),
		slog.Int("missing_cells", report.MissingCells),
		slog.Any("missing_by_column", report.MissingByColumn))

	return out, report
}
