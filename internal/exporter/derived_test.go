package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/pkg/contracts/domain"
)

func sampleDerived() domain.DerivedTable {
	base := time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC)
	return domain.DerivedTable{
		ExtraColumns: []string{"Adj Close"},
		Records: []domain.DerivedRecord{
			{
				PriceRecord: domain.PriceRecord{
					Date: base, Open: 54, High: 56, Low: 53.5, Close: 55, Volume: 1200,
					Extra: map[string]float64{"Adj Close": 54.9},
				},
				DailyReturn: 10,
				PriceChange: 5,
			},
			{
				PriceRecord: domain.PriceRecord{
					Date: base.AddDate(0, 0, 1), Open: 55, High: 55.2, Low: 52, Close: 52.25, Volume: 900,
					Extra: map[string]float64{"Adj Close": 52.1},
				},
				DailyReturn: -5,
				PriceChange: -2.75,
			},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportDerived(t *testing.T) {
	dir := t.TempDir()
	e := NewReportExporter(dir)

	require.NoError(t, e.ExportDerived(sampleDerived(), "derived.csv"))

	rows := readCSV(t, filepath.Join(dir, "derived.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Date", "Open", "High", "Low", "Close", "Volume",
		"Adj Close", "Daily_Returns", "Price_Change",
	}, rows[0])
	assert.Equal(t, "2015-03-02", rows[1][0])
	assert.Equal(t, "55", rows[1][4])
	assert.Equal(t, "10.000000", rows[1][7])
	assert.Equal(t, "-2.750000", rows[2][8])
}

func TestExportDerivedStreamMatchesBuffered(t *testing.T) {
	dir := t.TempDir()
	e := NewReportExporter(dir)
	table := sampleDerived()

	require.NoError(t, e.ExportDerived(table, "buffered.csv"))
	require.NoError(t, e.ExportDerivedStream(table, "streamed.csv"))

	buffered, err := os.ReadFile(filepath.Join(dir, "buffered.csv"))
	require.NoError(t, err)
	streamed, err := os.ReadFile(filepath.Join(dir, "streamed.csv"))
	require.NoError(t, err)
	assert.Equal(t, buffered, streamed)
}

func TestExportCorrelation(t *testing.T) {
	dir := t.TempDir()
	e := NewReportExporter(dir)

	entries := []domain.CorrelationEntry{
		{MetricA: "Close", MetricB: "Close", Value: 1, Defined: true},
		{MetricA: "Close", MetricB: "Volume", Value: -0.25, Defined: true},
		{MetricA: "Volume", MetricB: "Volume"},
	}
	require.NoError(t, e.ExportCorrelation(entries, "corr.csv"))

	rows := readCSV(t, filepath.Join(dir, "corr.csv"))
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"MetricA", "MetricB", "Value"}, rows[0])
	assert.Equal(t, []string{"Close", "Close", "1.000000"}, rows[1])
	assert.Equal(t, []string{"Close", "Volume", "-0.250000"}, rows[2])
	// Undefined coefficient stays an empty cell, never a fake zero.
	assert.Equal(t, []string{"Volume", "Volume", ""}, rows[3])
}
