// Package export serializes tabular result sets into downloadable
// payloads. CSV and JSON are always available; spreadsheet output is an
// optional capability registered only when enabled, and requesting it
// while absent fails with ErrCapabilityUnavailable instead of degrading.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

var (
	ErrUnknownFormat         = errors.New("unknown export format")
	ErrCapabilityUnavailable = errors.New("export format not available")
)

// Record is an ordered column-to-value mapping. Column order follows the
// order of Set calls, and the first record of a sequence dictates the
// column order of the whole export.
type Record struct {
	columns []string
	values  map[string]string
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set adds or replaces a column value, preserving first-insertion order
func (r *Record) Set(column, value string) *Record {
	if _, exists := r.values[column]; !exists {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
	return r
}

// Columns returns the column names in insertion order
func (r *Record) Columns() []string {
	return r.columns
}

// Get returns the value for a column, or the empty string when absent
func (r *Record) Get(column string) string {
	return r.values[column]
}

// Exporter serializes a sequence of uniform records into one format
type Exporter interface {
	// Format is the selector clients pass, e.g. "csv"
	Format() string
	// ContentType is the response MIME type
	ContentType() string
	// Extension is the filename extension without the dot
	Extension() string
	// Write serializes records to w. Empty input produces a valid,
	// empty payload, never an error.
	Write(w io.Writer, records []*Record) error
}

// Registry maps format selectors to exporters. Formats listed in
// knownFormats but never registered are treated as absent capabilities.
type Registry struct {
	exporters map[string]Exporter
	aliases   map[string]string
	known     map[string]bool
}

// NewRegistry creates a registry with CSV and JSON always present and
// XLSX registered only when the spreadsheet capability is enabled.
func NewRegistry(xlsxEnabled bool) *Registry {
	r := &Registry{
		exporters: make(map[string]Exporter),
		aliases:   map[string]string{"xls": "xlsx"},
		known:     map[string]bool{"csv": true, "json": true, "xlsx": true},
	}

	r.Register(NewCSVExporter())
	r.Register(NewJSONExporter())
	if xlsxEnabled {
		r.Register(NewXLSXExporter())
	}

	return r
}

// Register adds an exporter under its format selector
func (r *Registry) Register(e Exporter) {
	r.exporters[e.Format()] = e
	r.known[e.Format()] = true
}

// Lookup resolves a format selector to an exporter. A known format with
// no registered exporter yields ErrCapabilityUnavailable; an unrecognized
// selector yields ErrUnknownFormat.
func (r *Registry) Lookup(format string) (Exporter, error) {
	if canonical, ok := r.aliases[format]; ok {
		format = canonical
	}

	if e, ok := r.exporters[format]; ok {
		return e, nil
	}
	if r.known[format] {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, format)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// Available returns the registered format selectors, sorted
func (r *Registry) Available() []string {
	formats := make([]string, 0, len(r.exporters))
	for f := range r.exporters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Filename builds the attachment filename for an export:
// <resource>_export_<YYYYMMDD_HHMMSS>.<ext>
func Filename(resource string, e Exporter, now time.Time) string {
	return fmt.Sprintf("%s_export_%s.%s", resource, now.Format("20060102_150405"), e.Extension())
}

// columnsFor returns the column set dictating the export layout: the
// columns of the first record, in their insertion order.
func columnsFor(records []*Record) []string {
	if len(records) == 0 {
		return nil
	}
	return records[0].Columns()
}
