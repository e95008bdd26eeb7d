package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"game-reports/report-desk/pkg/storage"
)

// Options groups the per-format settings
type Options struct {
	PDF   PDFOptions
	CSV   CSVOptions
	Excel ExcelOptions
}

// DefaultOptions returns the default settings for every format
func DefaultOptions() Options {
	csvOpts := DefaultCSVOptions()
	csvOpts.IncludeSummary = true
	return Options{
		PDF:   DefaultPDFOptions(),
		CSV:   csvOpts,
		Excel: DefaultExcelOptions(),
	}
}

// Exporter renders documents in any supported format and optionally uploads the result
type Exporter struct {
	options  Options
	uploader storage.Uploader
	logger   *zap.Logger
}

// NewExporter creates an exporter; uploader may be nil
func NewExporter(options Options, uploader storage.Uploader, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		options:  options,
		uploader: uploader,
		logger:   logger,
	}
}

// Render writes the document in the given format to w
func (e *Exporter) Render(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatTablePDF:
		gen := NewPDFGenerator(e.options.PDF)
		if err := gen.GenerateTable(doc.Table, doc.Summary); err != nil {
			return err
		}
		return gen.Write(w)

	case FormatChartPDF:
		gen := NewPDFGenerator(e.options.PDF)
		if err := gen.GenerateChart(doc.Chart); err != nil {
			return err
		}
		return gen.Write(w)

	case FormatCSV:
		csvExporter := NewCSVExporter(w, e.options.CSV)
		if err := csvExporter.WriteTable(doc.Table); err != nil {
			return err
		}
		if err := csvExporter.WriteSummary(doc.Summary); err != nil {
			return err
		}
		return csvExporter.Flush()

	case FormatExcel:
		xlsx, err := NewExcelExporter(e.options.Excel)
		if err != nil {
			return err
		}
		defer xlsx.Close()
		if err := xlsx.WriteTable(doc.Table); err != nil {
			return err
		}
		if err := xlsx.WriteSummary(doc.Summary, len(doc.Table.Rows)+1); err != nil {
			return err
		}
		if err := xlsx.AddChart(doc.Chart); err != nil {
			return err
		}
		return xlsx.Write(w)

	case FormatChartHTML:
		return RenderChartHTML(w, doc.Chart)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Export writes the document to path, appending the format's extension when missing.
// When an uploader is configured the file is uploaded too; the returned string is
// the local path, or the remote location if the upload succeeded.
func (e *Exporter) Export(ctx context.Context, format Format, doc Document, path string) (string, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return "", err
	}
	path, err := NormalizePath(path, format.Extension())
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := e.Render(&buf, format, doc); err != nil {
		e.logger.Error("Failed to render export",
			zap.String("format", string(format)),
			zap.Error(err))
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.logger.Info("Report exported",
		zap.String("format", string(format)),
		zap.String("path", path),
		zap.Int("bytes", buf.Len()))

	if e.uploader == nil {
		return path, nil
	}

	location, err := e.uploader.Upload(ctx, filepath.Base(path), bytes.NewReader(buf.Bytes()), format.ContentType())
	if err != nil {
		e.logger.Warn("Export upload failed, keeping local copy",
			zap.String("path", path),
			zap.Error(err))
		return path, nil
	}
	e.logger.Info("Report uploaded", zap.String("location", location))
	return location, nil
}
