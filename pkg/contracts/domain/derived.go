package domain

import "math"

// Metric names introduced by the derivation stage.
const (
	MetricDailyReturn = "Daily_Returns"
	MetricPriceChange = "Price_Change"
)

// DerivedRecord extends a price record with day-over-day metrics computed
// against the previous chronological close.
type DerivedRecord struct {
	PriceRecord

	// DailyReturn is the percentage change of Close versus the previous
	// chronological Close.
	DailyReturn float64 `json:"daily_return"`

	// PriceChange is the absolute change of Close versus the previous
	// chronological Close.
	PriceChange float64 `json:"price_change"`
}

// Metric returns the named metric value, falling back to the underlying
// price record fields. Unknown names return NaN.
func (r DerivedRecord) Metric(name string) float64 {
	switch name {
	case MetricDailyReturn:
		return r.DailyReturn
	case MetricPriceChange:
		return r.PriceChange
	default:
		return r.Field(name)
	}
}

// IsDefined reports whether both derived metrics carry real values.
func (r DerivedRecord) IsDefined() bool {
	return !math.IsNaN(r.DailyReturn) && !math.IsNaN(r.PriceChange)
}

// DerivedTable is the authoritative output of the derivation stage,
// chronologically sorted and consumed by correlation and export.
type DerivedTable struct {
	Records      []DerivedRecord `json:"records"`
	ExtraColumns []string        `json:"extra_columns,omitempty"`
}

// Len returns the number of derived records.
func (t DerivedTable) Len() int {
	return len(t.Records)
}

// Metrics returns the ordered numeric metric names participating in the
// correlation matrix: core columns, extra columns, then the derived
// metrics. Price_Change is included only on request since it is a linear
// shadow of Daily_Returns over short horizons.
func (t DerivedTable) Metrics(includePriceChange bool) []string {
	metrics := make([]string, 0, len(CoreColumns)+len(t.ExtraColumns)+2)
	metrics = append(metrics, CoreColumns...)
	metrics = append(metrics, t.ExtraColumns...)
	metrics = append(metrics, MetricDailyReturn)
	if includePriceChange {
		metrics = append(metrics, MetricPriceChange)
	}
	return metrics
}
