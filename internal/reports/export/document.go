package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is an export format name
type Format string

const (
	FormatTablePDF  Format = "pdf-table"
	FormatChartPDF  Format = "pdf-chart"
	FormatCSV       Format = "csv"
	FormatExcel     Format = "xlsx"
	FormatChartHTML Format = "html-chart"
)

// ErrInvalidPath is returned for destinations that cannot hold an export
var ErrInvalidPath = errors.New("invalid export path")

// ErrUnsupportedFormat is returned for unknown format names
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats lists every supported format
func Formats() []Format {
	return []Format{FormatTablePDF, FormatChartPDF, FormatCSV, FormatExcel, FormatChartHTML}
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	switch f {
	case FormatTablePDF, FormatChartPDF:
		return ".pdf"
	case FormatCSV:
		return ".csv"
	case FormatExcel:
		return ".xlsx"
	case FormatChartHTML:
		return ".html"
	}
	return ""
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatTablePDF, FormatChartPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatChartHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// NormalizePath appends ext when the path does not already end with it (case-insensitive)
func NormalizePath(path, ext string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasSuffix(path, string(os.PathSeparator)) || strings.HasSuffix(path, "/") {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}
	if !strings.EqualFold(filepath.Ext(path), ext) {
		path += ext
	}
	return path, nil
}

// Table is a table ready for export: every row holds every column
type Table struct {
	Title   string
	Columns []string
	Rows    []map[string]string
}

// Cells returns the rows as ordered string slices
func (t Table) Cells() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = row[col]
		}
		out = append(out, cells)
	}
	return out
}

// Chart is a bar chart ready for export
type Chart struct {
	Title  string
	Labels []string
	Series []Series
}

// Series is one named list of bar values, aligned to the chart labels
type Series struct {
	Name   string
	Values []int64
}

// Empty reports whether the chart has nothing to draw
func (c Chart) Empty() bool {
	if len(c.Labels) == 0 {
		return true
	}
	for _, s := range c.Series {
		if len(s.Values) > 0 {
			return false
		}
	}
	return true
}

// SummaryItem is one label/value line of a summary section
type SummaryItem struct {
	Label string
	Value string
}

// Document bundles everything a report export can contain
type Document struct {
	Table   Table
	Chart   Chart
	Summary []SummaryItem
}
