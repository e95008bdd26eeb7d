package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"game-reports/report-desk/internal/reports"
	"game-reports/report-desk/internal/reports/export"
)

// ReportSource produces the report a snapshot exports
type ReportSource interface {
	Apply(ctx context.Context, criteria reports.Criteria) (*reports.Report, error)
}

// Exporter writes one document in one format
type Exporter interface {
	Export(ctx context.Context, format export.Format, doc export.Document, path string) (string, error)
}

// ExecutorConfig configuration for the executor
type ExecutorConfig struct {
	OutputDir string           `json:"output_dir"`
	Formats   []export.Format  `json:"formats"`
	Criteria  reports.Criteria `json:"criteria"`
	Title     string           `json:"title"`
	Timeout   time.Duration    `json:"timeout"`
}

// DefaultExecutorConfig returns default configuration
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		OutputDir: "exports",
		Formats:   []export.Format{export.FormatTablePDF, export.FormatChartPDF},
		Title:     "Game Sales Snapshot",
		Timeout:   5 * time.Minute,
	}
}

// ExecutionResult represents the result of one snapshot run
type ExecutionResult struct {
	ExecutionID uuid.UUID         `json:"execution_id"`
	Status      string            `json:"status"`
	RecordCount int               `json:"record_count"`
	Files       []string          `json:"files"`
	Failures    map[string]string `json:"failures,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	DurationMs  int64             `json:"duration_ms"`
}

const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Executor runs the report once and exports it in every configured format
type Executor struct {
	source   ReportSource
	exporter Exporter
	config   ExecutorConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewExecutor creates a new executor
func NewExecutor(source ReportSource, exporter Exporter, config ExecutorConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(config.Formats) == 0 {
		config.Formats = DefaultExecutorConfig().Formats
	}
	return &Executor{
		source:   source,
		exporter: exporter,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Execute applies the configured criteria and writes one file per format.
// A failing format does not stop the others.
func (e *Executor) Execute(ctx context.Context) (*ExecutionResult, error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	result := &ExecutionResult{
		ExecutionID: uuid.New(),
		StartedAt:   e.now(),
		Failures:    make(map[string]string),
	}

	report, err := e.source.Apply(ctx, e.config.Criteria)
	if err != nil {
		result.Status = StatusFailed
		e.finish(result)
		return result, fmt.Errorf("failed to build snapshot report: %w", err)
	}
	result.RecordCount = report.Summary.Count

	doc := reports.ToDocument(report, e.config.Title)
	base := filepath.Join(e.config.OutputDir, SnapshotName(result.StartedAt, result.ExecutionID))

	for _, format := range e.config.Formats {
		// one file per format, so pdf-table and pdf-chart need distinct names
		path := base + "-" + string(format)
		location, err := e.exporter.Export(ctx, format, doc, path)
		if err != nil {
			e.logger.Error("Snapshot export failed",
				zap.String("execution_id", result.ExecutionID.String()),
				zap.String("format", string(format)),
				zap.Error(err))
			result.Failures[string(format)] = err.Error()
			continue
		}
		result.Files = append(result.Files, location)
	}

	switch {
	case len(result.Failures) == 0:
		result.Status = StatusCompleted
	case len(result.Files) == 0:
		result.Status = StatusFailed
	default:
		result.Status = StatusPartial
	}
	e.finish(result)

	if result.Status == StatusFailed {
		return result, fmt.Errorf("every snapshot format failed")
	}
	return result, nil
}

func (e *Executor) finish(result *ExecutionResult) {
	result.CompletedAt = e.now()
	result.DurationMs = result.CompletedAt.Sub(result.StartedAt).Milliseconds()
}

// SnapshotName is the file stem of one run
func SnapshotName(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("snapshot-%s-%s", at.UTC().Format("20060102-150405"), id.String()[:8])
}
