package export

import (
	"encoding/json"
	"fmt"
	"io"
)

type jsonExporter struct{}

// NewJSONExporter creates the JSON exporter
func NewJSONExporter() Exporter {
	return &jsonExporter{}
}

func (e *jsonExporter) Format() string      { return "json" }
func (e *jsonExporter) ContentType() string { return "application/json" }
func (e *jsonExporter) Extension() string   { return "json" }

// Write emits an array of objects. Key order inside each object follows
// the first record's column order; empty input yields an empty array.
func (e *jsonExporter) Write(w io.Writer, records []*Record) error {
	columns := columnsFor(records)

	if _, err := io.WriteString(w, "[\n"); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	for i, record := range records {
		if i > 0 {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return fmt.Errorf("failed to write JSON output: %w", err)
			}
		}
		if err := writeJSONObject(w, columns, record); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, "\n]\n"); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	return nil
}

// writeJSONObject emits one record as an object, keys in column order.
// encoding/json marshals maps with sorted keys, so objects are assembled
// field by field to keep the declared column order.
func writeJSONObject(w io.Writer, columns []string, record *Record) error {
	if _, err := io.WriteString(w, "  {"); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	for i, column := range columns {
		if i > 0 {
			if _, err := io.WriteString(w, ", "); err != nil {
				return fmt.Errorf("failed to write JSON output: %w", err)
			}
		}

		key, err := json.Marshal(column)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON key: %w", err)
		}
		value, err := json.Marshal(record.Get(column))
		if err != nil {
			return fmt.Errorf("failed to marshal JSON value: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s: %s", key, value); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}
	}

	if _, err := io.WriteString(w, "}"); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	return nil
}
