// Package correlation builds pairwise Pearson correlation matrices over the
// numeric metrics of a derived price table and reshapes them into long form
// for tile-based rendering.
package correlation

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"pricelens/pkg/contracts/domain"
)

// Options controls which metrics participate in the matrix.
type Options struct {
	// IncludePriceChange adds Price_Change to the metric set. It is off by
	// default because Price_Change is nearly collinear with Daily_Returns
	// and crowds the heatmap with a redundant band.
	IncludePriceChange bool
}

// Matrix computes the full square Pearson correlation matrix over the
// table's numeric metrics and returns it as long-form entries for every
// ordered metric pair, self-pairs included.
//
// Missing-data policy: complete observations with listwise deletion. A
// record with any NaN among the selected metrics is excluded from the whole
// matrix computation, so every pair is computed over the same row set and
// the matrix stays positive semi-definite.
//
// Pairs without a computable coefficient (zero-variance column, or fewer
// than two complete observations) are reported with Defined=false rather
// than coerced to a number.
func Matrix(ctx context.Context, logger *slog.Logger, t domain.DerivedTable, opts Options) []domain.CorrelationEntry {
	if logger == nil {
		logger = slog.Default()
	}

	metrics := t.Metrics(opts.IncludePriceChange)
	rows := completeRows(t, metrics)

	logger.InfoContext(ctx, "building correlation matrix",
		slog.Int("metrics", len(metrics)),
		slog.Int("total_rows", t.Len()),
		slog.Int("complete_rows", len(rows)))

	entries := make([]domain.CorrelationEntry, 0, len(metrics)*len(metrics))
	if len(rows) < 2 {
		// No computable coefficients at all; report every pair undefined.
		for _, a := range metrics {
			for _, b := range metrics {
				entries = append(entries, domain.CorrelationEntry{MetricA: a, MetricB: b})
			}
		}
		return entries
	}

	data := mat.NewDense(len(rows), len(metrics), nil)
	for i, row := range rows {
		data.SetRow(i, row)
	}

	// CorrelationMatrix forces the diagonal to 1 even for a constant column,
	// so zero-variance columns must be found first; every pair touching one
	// is undefined, the self-pair included.
	degenerate := degenerateColumns(rows, len(metrics))

	corr := mat.NewSymDense(len(metrics), nil)
	stat.CorrelationMatrix(corr, data, nil)

	for i, a := range metrics {
		for j, b := range metrics {
			v := corr.At(i, j)
			entry := domain.CorrelationEntry{MetricA: a, MetricB: b}
			if !degenerate[i] && !degenerate[j] && !math.IsNaN(v) && !math.IsInf(v, 0) {
				entry.Value = clamp(v)
				entry.Defined = true
			}
			entries = append(entries, entry)
		}
	}

	return entries
}

// degenerateColumns reports which metric columns have zero variance over the
// complete observations.
func degenerateColumns(rows [][]float64, nMetrics int) []bool {
	degenerate := make([]bool, nMetrics)
	col := make([]float64, len(rows))
	for j := 0; j < nMetrics; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		degenerate[j] = stat.Variance(col, nil) == 0
	}
	return degenerate
}

// completeRows extracts the metric values of records that have no NaN among
// the selected metrics.
func completeRows(t domain.DerivedTable, metrics []string) [][]float64 {
	rows := make([][]float64, 0, t.Len())
	for _, rec := range t.Records {
		row := make([]float64, len(metrics))
		complete := true
		for i, m := range metrics {
			v := rec.Metric(m)
			if math.IsNaN(v) {
				complete = false
				break
			}
			row[i] = v
		}
		if complete {
			rows = append(rows, row)
		}
	}
	return rows
}

// clamp bounds a coefficient to [-1, 1]; floating point noise can push a
// perfect correlation a hair past the limit.
func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
