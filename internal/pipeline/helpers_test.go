package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricelens/pkg/contracts/domain"
)

// day builds a date in the fixed test year unless overridden.
func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("02-01-2006", value)
	require.NoError(t, err)
	return d
}

// rec builds a complete price record for the given close; the other fields
// get stable filler values so cleaning keeps the record.
func rec(t *testing.T, date string, close float64) domain.PriceRecord {
	t.Helper()
	return domain.PriceRecord{
		Date:   day(t, date),
		Open:   close - 1,
		High:   close + 1,
		Low:    close - 2,
		Close:  close,
		Volume: 1000,
	}
}

// writeCSV drops a CSV fixture into a temp dir and returns its path.
func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// closes extracts the close column from a derived table.
func closes(table domain.DerivedTable) []float64 {
	out := make([]float64, 0, table.Len())
	for _, r := range table.Records {
		out = append(out, r.Close)
	}
	return out
}

func nan() float64 { return math.NaN() }
