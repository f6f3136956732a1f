package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

type csvExporter struct{}

// NewCSVExporter creates the CSV exporter
func NewCSVExporter() Exporter {
	return &csvExporter{}
}

func (e *csvExporter) Format() string      { return "csv" }
func (e *csvExporter) ContentType() string { return "text/csv" }
func (e *csvExporter) Extension() string   { return "csv" }

// Write emits a header row followed by one row per record. Empty input
// yields an empty payload.
func (e *csvExporter) Write(w io.Writer, records []*Record) error {
	columns := columnsFor(records)
	if len(columns) == 0 {
		return nil
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(columns))
	for _, record := range records {
		for i, column := range columns {
			row[i] = record.Get(column)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}

	return nil
}
