package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter exports tables to CSV format
type CSVExporter struct {
	writer        *csv.Writer
	options       CSVOptions
	headerWritten bool
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter      rune   `json:"delimiter"`       // Field delimiter (default: comma)
	UseCRLF        bool   `json:"use_crlf"`        // Use \r\n for line terminator
	IncludeHeader  bool   `json:"include_header"`  // Include column headers
	IncludeSummary bool   `json:"include_summary"` // Append summary lines after a blank row
	NullValue      string `json:"null_value"`      // String to use for missing cells
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:     ',',
		IncludeHeader: true,
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	if options.Delimiter != 0 {
		writer.Comma = options.Delimiter
	}
	writer.UseCRLF = options.UseCRLF

	return &CSVExporter{
		writer:  writer,
		options: options,
	}
}

// WriteHeader writes the CSV header row
func (e *CSVExporter) WriteHeader(columns []string) error {
	if !e.options.IncludeHeader || e.headerWritten {
		return nil
	}
	if err := e.writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	e.headerWritten = true
	return nil
}

// WriteRow writes a single row of cells
func (e *CSVExporter) WriteRow(cells []string) error {
	if err := e.writer.Write(cells); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// WriteTable writes the header and every row of a table
func (e *CSVExporter) WriteTable(table Table) error {
	if err := e.WriteHeader(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			val, ok := row[col]
			if !ok {
				val = e.options.NullValue
			}
			cells[i] = val
		}
		if err := e.WriteRow(cells); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary appends summary lines after an empty separator row
func (e *CSVExporter) WriteSummary(items []SummaryItem) error {
	if !e.options.IncludeSummary || len(items) == 0 {
		return nil
	}
	if err := e.WriteRow([]string{}); err != nil {
		return err
	}
	for _, item := range items {
		if err := e.WriteRow([]string{item.Label, item.Value}); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer
func (e *CSVExporter) Flush() error {
	e.writer.Flush()
	return e.writer.Error()
}
