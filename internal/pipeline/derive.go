package pipeline

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"pricelens/pkg/contracts/domain"
)

// DeriveOptions controls the derivation stage.
type DeriveOptions struct {
	// KeepUndefined keeps records whose derived metrics are NaN (the first
	// chronological record, and records following a zero close) instead of
	// dropping them.
	KeepUndefined bool
}

// Derive establishes chronological order (stable ascending sort by date,
// ties keep their relative order) and computes day-over-day metrics per
// record:
//
//	DailyReturn[i] = (Close[i]/Close[i-1] - 1) * 100
//	PriceChange[i] = Close[i] - Close[i-1]
//
// The first record has no previous close and gets NaN for both metrics. A
// previous close of zero is a degenerate division and also yields NaN for
// the return. Unless KeepUndefined is set, records with undefined metrics
// are dropped and the drop count is logged.
func Derive(ctx context.Context, logger *slog.Logger, t domain.PriceTable, opts DeriveOptions) domain.DerivedTable {
	if logger == nil {
		logger = slog.Default()
	}

	sorted := make([]domain.PriceRecord, len(t.Records))
	copy(sorted, t.Records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := domain.DerivedTable{
		Records:      make([]domain.DerivedRecord, 0, len(sorted)),
		ExtraColumns: t.ExtraColumns,
	}

	dropped := 0
	for i, rec := range sorted {
		derived := domain.DerivedRecord{
			PriceRecord: rec,
			DailyReturn: math.NaN(),
			PriceChange: math.NaN(),
		}
		if i > 0 {
			prev := sorted[i-1].Close
			derived.PriceChange = rec.Close - prev
			if prev != 0 {
				derived.DailyReturn = (rec.Close/prev - 1) * 100
			}
		}

		if !derived.IsDefined() && !opts.KeepUndefined {
			dropped++
			continue
		}
		out.Records = append(out.Records, derived)
	}

	logger.InfoContext(ctx, "derived day-over-day metrics",
		slog.Int("input_rows", len(sorted)),
		slog.Int("output_rows", out.Len()),
		slog.Int("dropped_undefined", dropped))

	return out
}
