package exporter

import (
	"fmt"

	"pricelens/pkg/contracts/domain"
)

// ReportExporter generates the CSV reports consumed by chart renderers.
type ReportExporter struct {
	csvWriter *CSVWriter
}

// NewReportExporter creates an exporter writing under baseDir.
func NewReportExporter(baseDir string) *ReportExporter {
	return &ReportExporter{
		csvWriter: NewCSVWriter(baseDir),
	}
}

// ExportDerived writes the derived price table: date, core columns, extra
// columns, then the derived metrics.
func (e *ReportExporter) ExportDerived(table domain.DerivedTable, filePath string) error {
	headers := e.derivedHeaders(table)

	records := make([][]string, 0, table.Len())
	for _, rec := range table.Records {
		records = append(records, e.derivedRow(table, rec))
	}

	if err := e.csvWriter.WriteSimpleCSV(filePath, headers, records); err != nil {
		return fmt.Errorf("failed to write derived table: %w", err)
	}
	return nil
}

// ExportCorrelation writes the long-form correlation matrix. Undefined
// entries get an empty value cell.
func (e *ReportExporter) ExportCorrelation(entries []domain.CorrelationEntry, filePath string) error {
	headers := []string{"MetricA", "MetricB", "Value"}

	records := make([][]string, 0, len(entries))
	for _, entry := range entries {
		value := ""
		if entry.Defined {
			value = formatFixed(entry.Value, 6)
		}
		records = append(records, []string{entry.MetricA, entry.MetricB, value})
	}

	if err := e.csvWriter.WriteSimpleCSV(filePath, headers, records); err != nil {
		return fmt.Errorf("failed to write correlation matrix: %w", err)
	}
	return nil
}

// ExportDerivedStream writes the derived table through a stream writer, for
// histories too large to buffer as string rows.
func (e *ReportExporter) ExportDerivedStream(table domain.DerivedTable, filePath string) error {
	stream, err := e.csvWriter.CreateStreamWriter(filePath, e.derivedHeaders(table))
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	for _, rec := range table.Records {
		if err := stream.WriteRecord(e.derivedRow(table, rec)); err != nil {
			stream.Close()
			return fmt.Errorf("failed to stream derived row: %w", err)
		}
	}

	return stream.Close()
}

func (e *ReportExporter) derivedHeaders(table domain.DerivedTable) []string {
	headers := []string{"Date"}
	headers = append(headers, domain.CoreColumns...)
	headers = append(headers, table.ExtraColumns...)
	headers = append(headers, domain.MetricDailyReturn, domain.MetricPriceChange)
	return headers
}

func (e *ReportExporter) derivedRow(table domain.DerivedTable, rec domain.DerivedRecord) []string {
	row := []string{rec.Date.Format("2006-01-02")}
	for _, col := range domain.CoreColumns {
		row = append(row, formatFloat(rec.Field(col)))
	}
	for _, col := range table.ExtraColumns {
		row = append(row, formatFloat(rec.Field(col)))
	}
	row = append(row, formatFixed(rec.DailyReturn, 6), formatFixed(rec.PriceChange, 6))
	return row
}
