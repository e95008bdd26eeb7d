package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFGenerator generates PDF exports of a table or a bar chart
type PDFGenerator struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
	tr      func(string) string
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // A4, Letter, Legal
	Orientation    string     `json:"orientation"` // portrait, landscape
	Title          string     `json:"title"`
	Subtitle       string     `json:"subtitle,omitempty"`
	DateFormat     string     `json:"date_format"`
	IncludeHeader  bool       `json:"include_header"`
	IncludePageNum bool       `json:"include_page_num"`
	IncludeDate    bool       `json:"include_date"`
	HeaderColor    PDFColor   `json:"header_color"`
	AlternateRows  bool       `json:"alternate_rows"`
	AlternateColor PDFColor   `json:"alternate_color"`
	FontFamily     string     `json:"font_family"`
	FontSize       float64    `json:"font_size"`
	HeaderFontSize float64    `json:"header_font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	Margins        PDFMargins `json:"margins"`
	ChartHeight    float64    `json:"chart_height"`
	Palette        []PDFColor `json:"palette,omitempty"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "landscape",
		Title:          "Exported Table Data",
		DateFormat:     "2006-01-02 15:04",
		IncludeHeader:  true,
		IncludePageNum: true,
		IncludeDate:    true,
		HeaderColor:    PDFColor{R: 68, G: 114, B: 196},
		AlternateRows:  true,
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		FontFamily:     "Arial",
		FontSize:       9,
		HeaderFontSize: 10,
		TitleFontSize:  16,
		Margins: PDFMargins{
			Left:   15,
			Right:  15,
			Top:    20,
			Bottom: 20,
		},
		ChartHeight: 120,
		Palette: []PDFColor{
			{R: 68, G: 114, B: 196},
			{R: 237, G: 125, B: 49},
			{R: 112, G: 173, B: 71},
			{R: 255, G: 192, B: 0},
			{R: 91, G: 155, B: 213},
		},
	}
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	orientation := "P"
	if options.Orientation == "landscape" || options.Orientation == "L" {
		orientation = "L"
	}
	if options.PageSize == "" {
		options.PageSize = "A4"
	}

	pdf := gofpdf.New(orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(true, options.Margins.Bottom)

	g := &PDFGenerator{
		pdf:     pdf,
		options: options,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
	}
	g.setFooter()
	return g
}

// GenerateTable writes a table with an optional summary section
func (g *PDFGenerator) GenerateTable(table Table, summary []SummaryItem) error {
	if table.Title != "" {
		g.options.Title = table.Title
	}
	g.pdf.AddPage()
	g.addHeading()

	if len(table.Columns) > 0 {
		colWidths := g.calculateColumnWidths(table.Columns, table.Cells())
		if g.options.IncludeHeader {
			g.addTableHeader(table.Columns, colWidths)
		}
		g.addTableData(table.Columns, table.Cells(), colWidths)
	}

	if len(summary) > 0 {
		g.AddSummarySection("Summary", summary)
	}

	return g.pdf.Error()
}

// GenerateChart draws a bar chart. An empty chart renders a placeholder.
func (g *PDFGenerator) GenerateChart(chart Chart) error {
	g.options.Title = "Chart Export"
	if chart.Title != "" {
		g.options.Title = chart.Title
	}
	g.pdf.AddPage()
	g.addHeading()

	pageWidth, _ := g.pdf.GetPageSize()
	width := pageWidth - g.options.Margins.Left - g.options.Margins.Right

	if chart.Empty() {
		g.AddChartPlaceholder("", width, g.options.ChartHeight)
		return g.pdf.Error()
	}

	g.drawBarChart(chart, g.options.Margins.Left, g.pdf.GetY(), width, g.options.ChartHeight)
	return g.pdf.Error()
}

func (g *PDFGenerator) addHeading() {
	g.addTitle()
	if g.options.Subtitle != "" {
		g.addSubtitle()
	}
	if g.options.IncludeDate {
		g.addDate()
	}
	g.pdf.Ln(6)
}

// addTitle adds the report title
func (g *PDFGenerator) addTitle() {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, g.tr(g.options.Title), "", 1, "C", false, 0, "")
}

// addSubtitle adds the report subtitle
func (g *PDFGenerator) addSubtitle() {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+2)
	g.pdf.SetTextColor(100, 100, 100)
	g.pdf.CellFormat(0, 8, g.tr(g.options.Subtitle), "", 1, "C", false, 0, "")
}

// addDate adds the generation date
func (g *PDFGenerator) addDate() {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize-1)
	g.pdf.SetTextColor(128, 128, 128)
	dateStr := fmt.Sprintf("Generated: %s", time.Now().Format(g.options.DateFormat))
	g.pdf.CellFormat(0, 6, dateStr, "", 1, "R", false, 0, "")
}

// calculateColumnWidths sizes columns to content and scales them to the page
func (g *PDFGenerator) calculateColumnWidths(columns []string, rows [][]string) []float64 {
	pageWidth, _ := g.pdf.GetPageSize()
	availableWidth := pageWidth - g.options.Margins.Left - g.options.Margins.Right

	maxWidths := make([]float64, len(columns))

	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	for i, label := range columns {
		width := g.pdf.GetStringWidth(g.tr(label)) + 4
		if width > maxWidths[i] {
			maxWidths[i] = width
		}
	}

	// sample the first 100 rows
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	sampleSize := len(rows)
	if sampleSize > 100 {
		sampleSize = 100
	}
	for _, row := range rows[:sampleSize] {
		for i, val := range row {
			width := g.pdf.GetStringWidth(g.tr(val)) + 4
			if width > maxWidths[i] {
				maxWidths[i] = width
			}
		}
	}

	totalWidth := 0.0
	for _, w := range maxWidths {
		totalWidth += w
	}
	if totalWidth > availableWidth {
		scale := availableWidth / totalWidth
		for i := range maxWidths {
			maxWidths[i] *= scale
		}
	}

	return maxWidths
}

// addTableHeader adds the table header row
func (g *PDFGenerator) addTableHeader(labels []string, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.SetTextColor(255, 255, 255)

	for i, label := range labels {
		g.pdf.CellFormat(widths[i], 8, g.fit(label, widths[i]), "1", 0, "C", true, 0, "")
	}
	g.pdf.Ln(-1)
}

// addTableData adds the data rows, repeating the header on every new page
func (g *PDFGenerator) addTableData(columns []string, rows [][]string, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(0, 0, 0)

	_, pageHeight := g.pdf.GetPageSize()
	for i, row := range rows {
		if g.options.AlternateRows && i%2 == 1 {
			g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
		} else {
			g.pdf.SetFillColor(255, 255, 255)
		}

		if g.pdf.GetY()+7 > pageHeight-g.options.Margins.Bottom {
			g.pdf.AddPage()
			if g.options.IncludeHeader {
				g.addTableHeader(columns, widths)
				g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
				g.pdf.SetTextColor(0, 0, 0)
				if g.options.AlternateRows && i%2 == 1 {
					g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
				} else {
					g.pdf.SetFillColor(255, 255, 255)
				}
			}
		}

		for j, val := range row {
			g.pdf.CellFormat(widths[j], 7, g.fit(val, widths[j]), "1", 0, "L", true, 0, "")
		}
		g.pdf.Ln(-1)
	}
}

// fit translates s and truncates it with "..." to the cell width
func (g *PDFGenerator) fit(s string, width float64) string {
	s = g.tr(s)
	if g.pdf.GetStringWidth(s) <= width-2 {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && g.pdf.GetStringWidth(string(runes)+"...") > width-2 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// AddSummarySection adds a summary section to the report
func (g *PDFGenerator) AddSummarySection(title string, items []SummaryItem) {
	g.pdf.Ln(8)

	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+2)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 8, g.tr(title), "", 1, "L", false, 0, "")
	g.pdf.Ln(2)

	for _, item := range items {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
		g.pdf.CellFormat(60, 6, g.tr(item.Label+":"), "", 0, "L", false, 0, "")
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.CellFormat(0, 6, g.tr(item.Value), "", 1, "L", false, 0, "")
	}
}

// AddChartPlaceholder draws an empty frame for a chart with no data
func (g *PDFGenerator) AddChartPlaceholder(title string, width, height float64) {
	if title != "" {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+1)
		g.pdf.CellFormat(0, 8, g.tr(title), "", 1, "L", false, 0, "")
	}

	x := g.pdf.GetX()
	y := g.pdf.GetY()
	g.pdf.SetDrawColor(200, 200, 200)
	g.pdf.SetFillColor(248, 248, 248)
	g.pdf.Rect(x, y, width, height, "FD")

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(150, 150, 150)
	g.pdf.SetXY(x+width/2-20, y+height/2-3)
	g.pdf.CellFormat(40, 6, "No data", "", 0, "C", false, 0, "")

	g.pdf.SetY(y + height + 5)
	g.pdf.SetTextColor(0, 0, 0)
}

// drawBarChart draws grouped bars, one group per label, with a y axis and legend
func (g *PDFGenerator) drawBarChart(chart Chart, x, y, width, height float64) {
	const (
		axisWidth   = 18.0
		labelHeight = 22.0
		legendRow   = 6.0
		ticks       = 5
	)

	lo, hi := valueRange(chart)
	span := float64(hi - lo)
	if span == 0 {
		span = 1
	}

	plotX := x + axisWidth
	plotY := y
	plotW := width - axisWidth
	plotH := height - labelHeight
	scale := plotH / span
	zeroY := plotY + float64(hi)*scale

	// grid and y axis labels
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize-2)
	g.pdf.SetTextColor(90, 90, 90)
	g.pdf.SetDrawColor(220, 220, 220)
	g.pdf.SetLineWidth(0.1)
	for i := 0; i <= ticks; i++ {
		v := float64(lo) + span*float64(i)/ticks
		ty := zeroY - v*scale
		g.pdf.Line(plotX, ty, plotX+plotW, ty)
		g.pdf.SetXY(x, ty-2)
		g.pdf.CellFormat(axisWidth-2, 4, strconv.FormatInt(int64(math.Round(v)), 10), "", 0, "R", false, 0, "")
	}

	// axes
	g.pdf.SetDrawColor(60, 60, 60)
	g.pdf.SetLineWidth(0.3)
	g.pdf.Line(plotX, plotY, plotX, plotY+plotH)
	g.pdf.Line(plotX, zeroY, plotX+plotW, zeroY)

	groupW := plotW / float64(len(chart.Labels))
	seriesCount := len(chart.Series)
	if seriesCount == 0 {
		seriesCount = 1
	}
	barW := groupW * 0.8 / float64(seriesCount)

	for si, s := range chart.Series {
		color := g.color(si)
		g.pdf.SetFillColor(color.R, color.G, color.B)
		for li := range chart.Labels {
			if li >= len(s.Values) {
				break
			}
			v := float64(s.Values[li])
			bx := plotX + float64(li)*groupW + groupW*0.1 + float64(si)*barW
			if v >= 0 {
				g.pdf.Rect(bx, zeroY-v*scale, barW, v*scale, "F")
			} else {
				g.pdf.Rect(bx, zeroY, barW, -v*scale, "F")
			}
		}
	}

	// category labels, rotated when crowded
	g.pdf.SetTextColor(0, 0, 0)
	rotate := len(chart.Labels) > 8
	for li, label := range chart.Labels {
		cx := plotX + float64(li)*groupW
		ly := plotY + plotH + 2
		if rotate {
			g.pdf.TransformBegin()
			g.pdf.TransformRotate(45, cx+groupW/2, ly)
			g.pdf.SetXY(cx+groupW/2-labelHeight, ly)
			g.pdf.CellFormat(labelHeight, 4, g.fit(label, labelHeight), "", 0, "R", false, 0, "")
			g.pdf.TransformEnd()
		} else {
			g.pdf.SetXY(cx, ly)
			g.pdf.CellFormat(groupW, 4, g.fit(label, groupW), "", 0, "C", false, 0, "")
		}
	}

	// legend
	ly := y + height + 2
	lx := plotX
	for si, s := range chart.Series {
		color := g.color(si)
		g.pdf.SetFillColor(color.R, color.G, color.B)
		g.pdf.Rect(lx, ly+1, 4, 4, "F")
		g.pdf.SetXY(lx+5, ly)
		name := g.tr(s.Name)
		w := g.pdf.GetStringWidth(name) + 4
		g.pdf.CellFormat(w, legendRow, name, "", 0, "L", false, 0, "")
		lx += w + 10
	}
	g.pdf.SetY(ly + legendRow + 4)
}

func (g *PDFGenerator) color(i int) PDFColor {
	if len(g.options.Palette) == 0 {
		return g.options.HeaderColor
	}
	return g.options.Palette[i%len(g.options.Palette)]
}

// valueRange returns the value range including zero
func valueRange(chart Chart) (lo, hi int64) {
	for _, s := range chart.Series {
		for _, v := range s.Values {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

// Write writes the PDF to w
func (g *PDFGenerator) Write(w io.Writer) error {
	return g.pdf.Output(w)
}

// OutputToBytes returns the PDF as bytes
func (g *PDFGenerator) OutputToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveAs saves the PDF to a file
func (g *PDFGenerator) SaveAs(path string) error {
	return g.pdf.OutputFileAndClose(path)
}

// setFooter sets up the page footer
func (g *PDFGenerator) setFooter() {
	g.pdf.SetFooterFunc(func() {
		if !g.options.IncludePageNum {
			return
		}
		g.pdf.SetY(-15)
		g.pdf.SetFont(g.options.FontFamily, "", 8)
		g.pdf.SetTextColor(128, 128, 128)
		g.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", g.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}

// ExportTablePDF writes a table PDF to path, appending .pdf when missing
func ExportTablePDF(path string, table Table, summary []SummaryItem, options PDFOptions) (string, error) {
	path, err := NormalizePath(path, ".pdf")
	if err != nil {
		return "", err
	}
	gen := NewPDFGenerator(options)
	if err := gen.GenerateTable(table, summary); err != nil {
		return "", fmt.Errorf("failed to generate table pdf: %w", err)
	}
	if err := gen.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}

// ExportChartPDF writes a chart PDF to path, appending .pdf when missing
func ExportChartPDF(path string, chart Chart, options PDFOptions) (string, error) {
	path, err := NormalizePath(path, ".pdf")
	if err != nil {
		return "", err
	}
	gen := NewPDFGenerator(options)
	if err := gen.GenerateChart(chart); err != nil {
		return "", fmt.Errorf("failed to generate chart pdf: %w", err)
	}
	if err := gen.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}
