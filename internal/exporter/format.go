package exporter

import (
	"math"
	"strconv"
)

// formatFloat formats a float64 value for CSV output with enough digits to
// round-trip, leaving the cell empty for NaN so spreadsheets treat it as
// missing rather than a literal "NaN" string.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatFixed formats a float64 with a fixed number of decimal places.
func formatFixed(f float64, decimals int) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}
