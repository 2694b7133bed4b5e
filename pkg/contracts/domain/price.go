package domain

import (
	"math"
	"time"
)

// CoreColumns is the fixed set of numeric columns every price history file
// must provide, in canonical order. Additional numeric columns from the
// source are carried in PriceRecord.Extra.
var CoreColumns = []string{"Open", "High", "Low", "Close", "Volume"}

// PriceRecord represents one trading day of a single instrument. Numeric
// fields use NaN as the missing-value marker so a record can carry gaps
// until the cleaner removes it.
type PriceRecord struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`

	// Extra holds pass-through numeric columns keyed by header name.
	// Column order lives in PriceTable.ExtraColumns.
	Extra map[string]float64 `json:"extra,omitempty"`
}

// Field returns the named numeric field. Unknown names return NaN.
func (r PriceRecord) Field(name string) float64 {
	switch name {
	case "Open":
		return r.Open
	case "High":
		return r.High
	case "Low":
		return r.Low
	case "Close":
		return r.Close
	case "Volume":
		return r.Volume
	default:
		if v, ok := r.Extra[name]; ok {
			return v
		}
		return math.NaN()
	}
}

// IsComplete reports whether the record has a valid date and no missing
// numeric field, including the given extra columns.
func (r PriceRecord) IsComplete(extraColumns []string) bool {
	if r.Date.IsZero() {
		return false
	}
	for _, col := range CoreColumns {
		if math.IsNaN(r.Field(col)) {
			return false
		}
	}
	for _, col := range extraColumns {
		if math.IsNaN(r.Field(col)) {
			return false
		}
	}
	return true
}

// PriceTable is an ordered, column-homogeneous sequence of price records.
// Pipeline stages treat it as immutable and return new tables.
type PriceTable struct {
	Records      []PriceRecord `json:"records"`
	ExtraColumns []string      `json:"extra_columns,omitempty"`
}

// Len returns the number of records in the table.
func (t PriceTable) Len() int {
	return len(t.Records)
}

// Columns returns core plus extra numeric column names in canonical order.
func (t PriceTable) Columns() []string {
	cols := make([]string, 0, len(CoreColumns)+len(t.ExtraColumns))
	cols = append(cols, CoreColumns...)
	cols = append(cols, t.ExtraColumns...)
	return cols
}
