package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// MockUploader is a mock implementation of storage.Uploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func sampleDocument() Document {
	return Document{
		Table: Table{
			Columns: []string{"title", "genre", "sales"},
			Rows: []map[string]string{
				{"title": "A", "genre": "RPG", "sales": "10"},
				{"title": "B", "genre": "Action", "sales": "5"},
			},
		},
		Chart: Chart{
			Labels: []string{"A", "B"},
			Series: []Series{{Name: "Sales", Values: []int64{10, 5}}},
		},
		Summary: []SummaryItem{
			{Label: "Total games", Value: "2"},
			{Label: "Total sales", Value: "15"},
		},
	}
}

func TestNormalizePath(t *testing.T) {
	dir := t.TempDir()

	t.Run("appends missing extension", func(t *testing.T) {
		got, err := NormalizePath(filepath.Join(dir, "report"), ".pdf")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "report.pdf"), got)
	})

	t.Run("keeps extension regardless of case", func(t *testing.T) {
		got, err := NormalizePath(filepath.Join(dir, "report.PDF"), ".pdf")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "report.PDF"), got)
	})

	t.Run("other extension gets the right one appended", func(t *testing.T) {
		got, err := NormalizePath(filepath.Join(dir, "report.txt"), ".pdf")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "report.txt.pdf"), got)
	})

	t.Run("rejects empty and directory paths", func(t *testing.T) {
		_, err := NormalizePath("  ", ".pdf")
		assert.ErrorIs(t, err, ErrInvalidPath)

		_, err = NormalizePath(dir, ".pdf")
		assert.ErrorIs(t, err, ErrInvalidPath)

		_, err = NormalizePath("out/", ".pdf")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF-Table ")
	require.NoError(t, err)
	assert.Equal(t, FormatTablePDF, f)
	assert.Equal(t, ".pdf", f.Extension())

	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	for _, f := range Formats() {
		assert.NotEmpty(t, f.Extension(), f)
		assert.NotEqual(t, "application/octet-stream", f.ContentType(), f)
	}
}

func TestTableCells(t *testing.T) {
	table := Table{
		Columns: []string{"b", "a"},
		Rows:    []map[string]string{{"a": "1", "b": "2"}, {"a": "3"}},
	}
	assert.Equal(t, [][]string{{"2", "1"}, {"", "3"}}, table.Cells())
}

func TestChartEmpty(t *testing.T) {
	assert.True(t, Chart{}.Empty())
	assert.True(t, Chart{Labels: []string{"A"}}.Empty())
	assert.False(t, sampleDocument().Chart.Empty())
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultCSVOptions()
	opts.IncludeSummary = true

	exporter := NewCSVExporter(&buf, opts)
	doc := sampleDocument()
	require.NoError(t, exporter.WriteTable(doc.Table))
	require.NoError(t, exporter.WriteSummary(doc.Summary))
	require.NoError(t, exporter.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"title,genre,sales",
		"A,RPG,10",
		"B,Action,5",
		"",
		"Total games,2",
		"Total sales,15",
	}, lines)
}

func TestCSVExporter_HeaderOnlyOnce(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSVExporter(&buf, CSVOptions{Delimiter: ';', IncludeHeader: true})

	require.NoError(t, exporter.WriteHeader([]string{"a", "b"}))
	require.NoError(t, exporter.WriteHeader([]string{"a", "b"}))
	require.NoError(t, exporter.WriteRow([]string{"1", "2"}))
	require.NoError(t, exporter.Flush())

	assert.Equal(t, "a;b\n1;2\n", buf.String())
}

func TestExporter_RenderEveryFormat(t *testing.T) {
	exporter := NewExporter(DefaultOptions(), nil, nil)
	doc := sampleDocument()

	for _, format := range Formats() {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, exporter.Render(&buf, format, doc))
			assert.NotZero(t, buf.Len())
		})
	}
}

func TestExporter_RenderEmptyDocument(t *testing.T) {
	exporter := NewExporter(DefaultOptions(), nil, nil)
	empty := Document{Table: Table{Columns: []string{"title", "sales"}}}

	for _, format := range Formats() {
		var buf bytes.Buffer
		require.NoError(t, exporter.Render(&buf, format, empty), format)
		assert.NotZero(t, buf.Len(), format)
	}
}

func TestExporter_PDFSignature(t *testing.T) {
	exporter := NewExporter(DefaultOptions(), nil, nil)

	var buf bytes.Buffer
	require.NoError(t, exporter.Render(&buf, FormatChartPDF, sampleDocument()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestExporter_HTMLContainsSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChartHTML(&buf, sampleDocument().Chart))
	assert.Contains(t, buf.String(), "Sales")
	assert.Contains(t, buf.String(), "echarts")
}

func TestGenerators_Write(t *testing.T) {
	doc := sampleDocument()

	gen := NewPDFGenerator(DefaultPDFOptions())
	require.NoError(t, gen.GenerateTable(doc.Table, doc.Summary))
	var pdf bytes.Buffer
	require.NoError(t, gen.Write(&pdf))
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")))

	xlsx, err := NewExcelExporter(DefaultExcelOptions())
	require.NoError(t, err)
	defer xlsx.Close()
	require.NoError(t, xlsx.WriteTable(doc.Table))
	var book bytes.Buffer
	require.NoError(t, xlsx.Write(&book))

	f, err := excelize.OpenReader(&book)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Report")
}

func TestExcelExporter_WritesTableAndChart(t *testing.T) {
	exporter := NewExporter(DefaultOptions(), nil, nil)

	var buf bytes.Buffer
	require.NoError(t, exporter.Render(&buf, FormatExcel, sampleDocument()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Report", "Chart"}, f.GetSheetList())

	header, err := f.GetCellValue("Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "title", header)

	sales, err := f.GetCellValue("Report", "C2")
	require.NoError(t, err)
	assert.Equal(t, "10", sales)

	total, err := f.GetCellValue("Report", "B6")
	require.NoError(t, err)
	assert.Equal(t, "15", total)
}

func TestConsoleTable(t *testing.T) {
	var buf bytes.Buffer
	doc := sampleDocument()
	require.NoError(t, RenderConsoleTable(&buf, doc.Table, doc.Summary))

	out := buf.String()
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Action")
	// headers and footers are upper-cased by the default style
	assert.Contains(t, strings.ToUpper(out), "TOTAL SALES: 15")
}

func TestExporter_ExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(DefaultOptions(), nil, nil)

	path, err := exporter.Export(context.Background(), FormatCSV, sampleDocument(), filepath.Join(dir, "nested", "sales"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "sales.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "title,genre,sales"))
}

func TestExporter_ExportUploads(t *testing.T) {
	dir := t.TempDir()
	uploader := new(MockUploader)
	uploader.On("Upload", mock.Anything, "sales.pdf", mock.Anything, "application/pdf").
		Return("s3://bucket/reports/sales.pdf", nil).Once()

	exporter := NewExporter(DefaultOptions(), uploader, nil)
	location, err := exporter.Export(context.Background(), FormatTablePDF, sampleDocument(), filepath.Join(dir, "sales"))
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/reports/sales.pdf", location)
	assert.FileExists(t, filepath.Join(dir, "sales.pdf"))
	uploader.AssertExpectations(t)
}

func TestExporter_ExportUploadFailureKeepsLocalFile(t *testing.T) {
	dir := t.TempDir()
	uploader := new(MockUploader)
	uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("access denied"))

	exporter := NewExporter(DefaultOptions(), uploader, nil)
	location, err := exporter.Export(context.Background(), FormatChartHTML, sampleDocument(), filepath.Join(dir, "chart.HTML"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chart.HTML"), location)
}

func TestExporter_ExportRejectsBadInput(t *testing.T) {
	exporter := NewExporter(DefaultOptions(), nil, nil)

	_, err := exporter.Export(context.Background(), Format("docx"), sampleDocument(), "x")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = exporter.Export(context.Background(), FormatCSV, sampleDocument(), t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidPath)
}
