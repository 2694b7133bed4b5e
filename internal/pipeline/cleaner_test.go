package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/pkg/contracts/domain"
)

func TestCleanRemovesIncompleteRows(t *testing.T) {
	missingHigh := rec(t, "06-01-2010", 30)
	missingHigh.High = nan()

	missingDate := rec(t, "07-01-2010", 31)
	missingDate.Date = time.Time{}
	missingDate.Low = nan()

	table := domain.PriceTable{
		Records: []domain.PriceRecord{
			rec(t, "05-01-2010", 29),
			missingHigh,
			missingDate,
			rec(t, "08-01-2010", 32),
		},
	}

	cleaned, report := Clean(context.Background(), nil, table)

	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 4, report.TotalRows)
	assert.Equal(t, 2, report.RowsKept)
	assert.Equal(t, 2, report.IncompleteRows)
	assert.Equal(t, 3, report.MissingCells)
	assert.Equal(t, 1, report.MissingByColumn["High"])
	assert.Equal(t, 1, report.MissingByColumn["Low"])
	assert.Equal(t, 1, report.MissingByColumn["Date"])
}

func TestCleanCountsExtraColumns(t *testing.T) {
	r := rec(t, "05-01-2010", 30)
	r.Extra = map[string]float64{"Adj Close": nan()}

	table := domain.PriceTable{
		Records:      []domain.PriceRecord{r},
		ExtraColumns: []string{"Adj Close"},
	}

	cleaned, report := Clean(context.Background(), nil, table)

	assert.Equal(t, 0, cleaned.Len())
	assert.Equal(t, 1, report.MissingByColumn["Adj Close"])
}

func TestCleanIsIdempotent(t *testing.T) {
	dirty := rec(t, "06-01-2010", 30)
	dirty.Volume = nan()

	table := domain.PriceTable{
		Records: []domain.PriceRecord{rec(t, "05-01-2010", 29), dirty},
	}

	once, _ := Clean(context.Background(), nil, table)
	twice, report := Clean(context.Background(), nil, once)

	require.Equal(t, once.Len(), twice.Len())
	assert.Equal(t, 0, report.MissingCells)
	assert.Equal(t, 0, report.IncompleteRows)
}
