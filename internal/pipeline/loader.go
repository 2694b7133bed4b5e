package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"pricelens/internal/errors"
	"pricelens/pkg/contracts/domain"
)

// Loader reads price history files into an in-memory table.
type Loader struct {
	logger     *slog.Logger
	dateLayout string
}

// NewLoader creates a loader with the given date layout (Go reference
// format, e.g. "02-01-2006" for day-month-year sources).
func NewLoader(logger *slog.Logger, dateLayout string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, dateLayout: dateLayout}
}

// Load reads the file at path, dispatching on the extension: .xlsx goes
// through the workbook loader, everything else is treated as CSV.
func (l *Loader) Load(path, sheet string) (domain.PriceTable, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return l.LoadWorkbook(path, sheet)
	}
	return l.LoadCSV(path)
}

// LoadCSV reads a comma-separated price history file. The header row is
// required; the Date column is parsed with the configured layout. A date or
// numeric cell that is present but unparseable fails the whole load with a
// parsing error carrying file, row and column context. Empty cells become
// NaN and are left for the cleaner.
func (l *Loader) LoadCSV(path string) (domain.PriceTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.PriceTable{}, errors.NewStorageError("cannot open input file", err).
			WithContext("file", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.PriceTable{}, errors.NewParsingError("malformed CSV row", err).
				WithContext("file", path)
		}
		rows = append(rows, row)
	}

	table, err := l.parseRows(path, rows)
	if err != nil {
		return domain.PriceTable{}, err
	}

	l.logger.Info("loaded price history",
		slog.String("file", path),
		slog.Int("rows", table.Len()),
		slog.Int("extra_columns", len(table.ExtraColumns)))

	return table, nil
}

// LoadWorkbook reads a price history sheet from an Excel workbook. The
// sheet is selected by name, or when sheet is empty, by scanning for the
// first sheet whose header row mentions the date and close columns.
func (l *Loader) LoadWorkbook(path, sheet string) (domain.PriceTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.PriceTable{}, errors.NewStorageError("cannot open workbook", err).
			WithContext("file", path)
	}
	defer f.Close()

	var rows [][]string
	if sheet != "" {
		rows, err = f.GetRows(sheet)
		if err != nil {
			return domain.PriceTable{}, errors.NewNotFoundError(fmt.Sprintf("sheet %q", sheet)).
				WithContext("file", path)
		}
	} else {
		found := false
		for _, name := range f.GetSheetList() {
			candidate, err := f.GetRows(name)
			if err != nil || len(candidate) == 0 {
				continue
			}
			header := strings.ToLower(strings.Join(candidate[0], " "))
			if strings.Contains(header, "date") && strings.Contains(header, "close") {
				rows = candidate
				sheet = name
				found = true
				break
			}
		}
		if !found {
			return domain.PriceTable{}, errors.NewParsingError("no sheet with price history header found", nil).
				WithContext("file", path)
		}
	}

	l.logger.Info("found price history sheet",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("total_rows", len(rows)))

	return l.parseRows(path, rows)
}

// parseRows turns raw string rows (header first) into a PriceTable.
func (l *Loader) parseRows(path string, rows [][]string) (domain.PriceTable, error) {
	if len(rows) == 0 {
		return domain.PriceTable{}, errors.NewParsingError("input has no header row", nil).
			WithContext("file", path)
	}

	header := rows[0]
	// UTF-8 BOM shows up glued to the first header cell in Excel exports.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	dateIdx := -1
	coreIdx := make(map[string]int, len(domain.CoreColumns))
	var extraColumns []string
	extraIdx := make(map[string]int)

	for i, name := range header {
		name = strings.TrimSpace(name)
		if strings.EqualFold(name, "date") {
			dateIdx = i
			continue
		}
		matched := false
		for _, core := range domain.CoreColumns {
			if strings.EqualFold(name, core) {
				coreIdx[core] = i
				matched = true
				break
			}
		}
		if !matched && name != "" {
			extraColumns = append(extraColumns, name)
			extraIdx[name] = i
		}
	}

	if dateIdx == -1 {
		return domain.PriceTable{}, errors.NewParsingError("missing Date column", nil).
			WithContext("file", path)
	}
	for _, core := range domain.CoreColumns {
		if _, ok := coreIdx[core]; !ok {
			return domain.PriceTable{}, errors.NewParsingError("missing required column", nil).
				WithContext("file", path).
				WithContext("column", core)
		}
	}

	table := domain.PriceTable{
		Records:      make([]domain.PriceRecord, 0, len(rows)-1),
		ExtraColumns: extraColumns,
	}

	for rowNum, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}

		date, err := l.parseDate(cellAt(row, dateIdx))
		if err != nil {
			return domain.PriceTable{}, errors.NewParsingError("cannot parse date", err).
				WithContext("file", path).
				WithContext("row", rowNum+2).
				WithContext("column", "Date")
		}

		rec := domain.PriceRecord{Date: date}
		for _, core := range domain.CoreColumns {
			v, err := parseNumericCell(cellAt(row, coreIdx[core]))
			if err != nil {
				return domain.PriceTable{}, errors.NewParsingError("cannot parse numeric cell", err).
					WithContext("file", path).
					WithContext("row", rowNum+2).
					WithContext("column", core)
			}
			switch core {
			case "Open":
				rec.Open = v
			case "High":
				rec.High = v
			case "Low":
				rec.Low = v
			case "Close":
				rec.Close = v
			case "Volume":
				rec.Volume = v
			}
		}

		if len(extraColumns) > 0 {
			rec.Extra = make(map[string]float64, len(extraColumns))
			for _, col := range extraColumns {
				v, err := parseNumericCell(cellAt(row, extraIdx[col]))
				if err != nil {
					return domain.PriceTable{}, errors.NewParsingError("cannot parse numeric cell", err).
						WithContext("file", path).
						WithContext("row", rowNum+2).
						WithContext("column", col)
				}
				rec.Extra[col] = v
			}
		}

		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// parseDate parses a date cell. An empty cell yields the zero time, which
// the cleaner treats as a missing value.
func (l *Loader) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(l.dateLayout, s)
}

// parseNumericCell parses a numeric cell, tolerating thousands separators.
// An empty cell yields NaN.
func parseNumericCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// cellAt returns the cell at idx, or empty when the row is short. Workbook
// rows are ragged on trailing empty cells.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
