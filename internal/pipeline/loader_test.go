package pipeline

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pricelens/internal/errors"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume,Adj Close
05-01-2010,30.49,30.64,30.34,30.62,123432400,26.29
06-01-2010,30.65,30.74,30.10,30.13,150476200,25.87
07-01-2010,30.25,30.28,29.86,30.08,138040000,25.83
`

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "prices.csv", sampleCSV)

	table, err := NewLoader(nil, "02-01-2006").LoadCSV(path)
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"Adj Close"}, table.ExtraColumns)

	first := table.Records[0]
	assert.Equal(t, day(t, "05-01-2010"), first.Date)
	assert.Equal(t, 30.49, first.Open)
	assert.Equal(t, 30.62, first.Close)
	assert.Equal(t, 123432400.0, first.Volume)
	assert.Equal(t, 26.29, first.Extra["Adj Close"])
}

func TestLoadCSVEmptyCellsBecomeNaN(t *testing.T) {
	csv := "Date,Open,High,Low,Close,Volume\n" +
		"05-01-2010,30.49,,30.34,30.62,123432400\n" +
		",30.65,30.74,30.10,30.13,150476200\n"
	path := writeCSV(t, "gaps.csv", csv)

	table, err := NewLoader(nil, "02-01-2006").LoadCSV(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.True(t, math.IsNaN(table.Records[0].High))
	assert.False(t, math.IsNaN(table.Records[0].Close))
	assert.True(t, table.Records[1].Date.IsZero())
}

func TestLoadCSVBadDate(t *testing.T) {
	csv := "Date,Open,High,Low,Close,Volume\n" +
		"2010/01/05,30.49,30.64,30.34,30.62,123432400\n"
	path := writeCSV(t, "baddate.csv", csv)

	_, err := NewLoader(nil, "02-01-2006").LoadCSV(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParsing))

	appErr := err.(*errors.AppError)
	assert.Equal(t, 2, appErr.Context["row"])
	assert.Equal(t, "Date", appErr.Context["column"])
}

func TestLoadCSVBadNumericCell(t *testing.T) {
	csv := "Date,Open,High,Low,Close,Volume\n" +
		"05-01-2010,30.49,30.64,30.34,n/a,123432400\n"
	path := writeCSV(t, "badnum.csv", csv)

	_, err := NewLoader(nil, "02-01-2006").LoadCSV(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
	assert.Equal(t, "Close", err.(*errors.AppError).Context["column"])
}

func TestLoadCSVMissingRequiredColumn(t *testing.T) {
	path := writeCSV(t, "nocol.csv", "Date,Open,High,Low,Close\n05-01-2010,1,2,0.5,1.5\n")

	_, err := NewLoader(nil, "02-01-2006").LoadCSV(path)
	require.Error(t, err)
	assert.Equal(t, "Volume", err.(*errors.AppError).Context["column"])
}

func TestLoadCSVUnreadableFile(t *testing.T) {
	_, err := NewLoader(nil, "02-01-2006").LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
}

func TestLoadCSVThousandsSeparators(t *testing.T) {
	csv := "Date,Open,High,Low,Close,Volume\n" +
		"05-01-2010,30.49,30.64,30.34,30.62,\"123,432,400\"\n"
	path := writeCSV(t, "sep.csv", csv)

	table, err := NewLoader(nil, "02-01-2006").LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 123432400.0, table.Records[0].Volume)
}

func TestLoadWorkbookDetectsSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := "History"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []interface{}{"Date", "Open", "High", "Low", "Close", "Volume"}
	row := []interface{}{"05-01-2010", 30.49, 30.64, 30.34, 30.62, 123432400}
	for col, v := range header {
		name, _ := excelize.ColumnNumberToName(col + 1)
		require.NoError(t, f.SetCellValue(sheet, name+"1", v))
	}
	for col, v := range row {
		name, _ := excelize.ColumnNumberToName(col + 1)
		require.NoError(t, f.SetCellValue(sheet, name+"2", v))
	}

	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := NewLoader(nil, "02-01-2006").Load(path, "")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 30.62, table.Records[0].Close)
}

func TestLoadWorkbookUnknownSheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := NewLoader(nil, "02-01-2006").LoadWorkbook(path, "Nope")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestLoadCSVStripsBOM(t *testing.T) {
	csv := "\ufeffDate,Open,High,Low,Close,Volume\n05-01-2010,1,2,0.5,1.5,10\n"
	path := writeCSV(t, "bom.csv", csv)

	table, err := NewLoader(nil, "02-01-2006").LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}
