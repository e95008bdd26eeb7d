package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter exports a report to an xlsx workbook: the table on one sheet and,
// optionally, the chart data with a native bar chart on another
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SheetName      string            `json:"sheet_name"`
	ChartSheetName string            `json:"chart_sheet_name"`
	IncludeHeader  bool              `json:"include_header"`
	FreezeHeader   bool              `json:"freeze_header"`
	AutoFilter     bool              `json:"auto_filter"`
	NumericCells   bool              `json:"numeric_cells"`
	HeaderStyle    *ExcelStyleConfig `json:"header_style,omitempty"`
	DataStyle      *ExcelStyleConfig `json:"data_style,omitempty"`
	AutoWidth      bool              `json:"auto_width"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:      "Report",
		ChartSheetName: "Chart",
		IncludeHeader:  true,
		FreezeHeader:   true,
		AutoFilter:     true,
		NumericCells:   true,
		AutoWidth:      true,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "4472C4",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		DataStyle: &ExcelStyleConfig{
			FontSize:  11,
			Alignment: "left",
			Border:    true,
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) (*ExcelExporter, error) {
	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", options.SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	return &ExcelExporter{
		file:    file,
		options: options,
	}, nil
}

// WriteTable writes the header row and the data rows of a table
func (e *ExcelExporter) WriteTable(table Table) error {
	sheet := e.options.SheetName
	startRow := 1

	if e.options.IncludeHeader {
		if err := e.writeHeader(sheet, table.Columns); err != nil {
			return err
		}
		startRow = 2
	}

	dataStyleID := 0
	if e.options.DataStyle != nil {
		style, err := e.createStyle(e.options.DataStyle)
		if err != nil {
			return fmt.Errorf("failed to create data style: %w", err)
		}
		dataStyleID = style
	}

	columnWidths := make(map[int]float64)
	for i, col := range table.Columns {
		columnWidths[i] = float64(len(col)) * 1.2
	}

	for rowIdx, cells := range table.Cells() {
		for colIdx, val := range cells {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, startRow+rowIdx)
			if err := e.setCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			if dataStyleID > 0 {
				_ = e.file.SetCellStyle(sheet, cell, cell, dataStyleID)
			}
			if width := float64(len(val)) * 1.2; width > columnWidths[colIdx] {
				columnWidths[colIdx] = width
			}
		}
	}

	if e.options.AutoFilter && e.options.IncludeHeader && len(table.Rows) > 0 && len(table.Columns) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(table.Columns), len(table.Rows)+1)
		if err := e.file.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
			return fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	if e.options.AutoWidth {
		for colIdx, width := range columnWidths {
			colName, _ := excelize.ColumnNumberToName(colIdx + 1)
			// min 10, max 50
			width = maxFloat(10, minFloat(50, width))
			_ = e.file.SetColWidth(sheet, colName, colName, width)
		}
	}

	return nil
}

func (e *ExcelExporter) writeHeader(sheet string, columns []string) error {
	headerStyleID := 0
	if e.options.HeaderStyle != nil {
		style, err := e.createStyle(e.options.HeaderStyle)
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = style
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if headerStyleID > 0 {
			_ = e.file.SetCellStyle(sheet, cell, cell, headerStyleID)
		}
	}

	if e.options.FreezeHeader {
		if err := e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}
	return nil
}

// WriteSummary writes label/value pairs below the table, leaving one blank row
func (e *ExcelExporter) WriteSummary(items []SummaryItem, afterRow int) error {
	sheet := e.options.SheetName
	for i, item := range items {
		row := afterRow + 2 + i
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := e.file.SetCellValue(sheet, labelCell, item.Label); err != nil {
			return err
		}
		if err := e.setCellValue(sheet, valueCell, item.Value); err != nil {
			return err
		}
	}
	return nil
}

// AddChart writes the chart data to its own sheet and adds a clustered column chart over it
func (e *ExcelExporter) AddChart(chart Chart) error {
	if chart.Empty() {
		return nil
	}
	sheet := e.options.ChartSheetName
	if _, err := e.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create chart sheet: %w", err)
	}

	_ = e.file.SetCellValue(sheet, "A1", "Label")
	for si, s := range chart.Series {
		cell, _ := excelize.CoordinatesToCellName(si+2, 1)
		_ = e.file.SetCellValue(sheet, cell, s.Name)
	}
	for li, label := range chart.Labels {
		cell, _ := excelize.CoordinatesToCellName(1, li+2)
		_ = e.file.SetCellValue(sheet, cell, label)
		for si, s := range chart.Series {
			if li >= len(s.Values) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(si+2, li+2)
			_ = e.file.SetCellValue(sheet, cell, s.Values[li])
		}
	}

	lastRow := len(chart.Labels) + 1
	series := make([]excelize.ChartSeries, 0, len(chart.Series))
	for si := range chart.Series {
		col, _ := excelize.ColumnNumberToName(si + 2)
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", quoteSheet(sheet), col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", quoteSheet(sheet), lastRow),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", quoteSheet(sheet), col, col, lastRow),
		})
	}

	title := chart.Title
	if title == "" {
		title = "Chart Export"
	}
	anchor, _ := excelize.CoordinatesToCellName(len(chart.Series)+3, 2)
	if err := e.file.AddChart(sheet, anchor, &excelize.Chart{
		Type:      excelize.Col,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: title}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 400},
	}); err != nil {
		return fmt.Errorf("failed to add chart: %w", err)
	}
	return nil
}

// Write writes the Excel file to w
func (e *ExcelExporter) Write(w io.Writer) error {
	return e.file.Write(w)
}

// SaveAs saves the Excel file to a path
func (e *ExcelExporter) SaveAs(path string) error {
	return e.file.SaveAs(path)
}

// Close closes the Excel file
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}

// createStyle creates an Excel style from config
func (e *ExcelExporter) createStyle(config *ExcelStyleConfig) (int, error) {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		},
	}

	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}

	if config.Alignment != "" {
		style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
	}

	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	return e.file.NewStyle(style)
}

// setCellValue stores numeric-looking text as a number so spreadsheet formulas work
func (e *ExcelExporter) setCellValue(sheet, cell, val string) error {
	if e.options.NumericCells {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return e.file.SetCellValue(sheet, cell, n)
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil && !strings.ContainsAny(val, "eEnN") {
			return e.file.SetCellValue(sheet, cell, f)
		}
	}
	return e.file.SetCellValue(sheet, cell, val)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
