package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"game-reports/report-desk/internal/reports"
	"game-reports/report-desk/internal/reports/export"
)

// MockSource is a mock implementation of ReportSource
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Apply(ctx context.Context, criteria reports.Criteria) (*reports.Report, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.Report), args.Error(1)
}

// MockExporter is a mock implementation of Exporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, format export.Format, doc export.Document, path string) (string, error) {
	args := m.Called(ctx, format, doc, path)
	if fn, ok := args.Get(0).(func(context.Context, export.Format, export.Document, string) string); ok {
		return fn(ctx, format, doc, path), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func sampleReport() *reports.Report {
	report := reports.EmptyReport(reports.Criteria{Category: "All"}, []string{"title", "sales"})
	report.Table.Rows = []map[string]string{{"title": "A", "sales": "10"}}
	report.Chart = reports.ToChartViewModel([]string{"A"}, map[string][]interface{}{"Sales": {10}})
	report.Summary = reports.Summary{Count: 1, Total: 10}
	return report
}

func TestExecutor_ExportsEveryFormat(t *testing.T) {
	source := new(MockSource)
	source.On("Apply", mock.Anything, reports.Criteria{}).Return(sampleReport(), nil)

	exporter := new(MockExporter)
	exporter.On("Export", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(_ context.Context, format export.Format, _ export.Document, path string) string {
			return path + format.Extension()
		}, nil)

	cfg := DefaultExecutorConfig()
	cfg.OutputDir = "out"
	executor := NewExecutor(source, exporter, cfg, nil)
	executor.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	result, err := executor.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, 1, result.RecordCount)
	require.Len(t, result.Files, 2)
	for _, f := range result.Files {
		assert.Equal(t, "out", filepath.Dir(f))
		assert.True(t, strings.HasPrefix(filepath.Base(f), "snapshot-20240501-120000-"), f)
		assert.True(t, strings.HasSuffix(f, ".pdf"), f)
	}
	assert.NotEqual(t, result.Files[0], result.Files[1])
	exporter.AssertNumberOfCalls(t, "Export", 2)
}

func TestExecutor_PartialFailure(t *testing.T) {
	source := new(MockSource)
	source.On("Apply", mock.Anything, mock.Anything).Return(sampleReport(), nil)

	exporter := new(MockExporter)
	exporter.On("Export", mock.Anything, export.FormatTablePDF, mock.Anything, mock.Anything).Return("table.pdf", nil)
	exporter.On("Export", mock.Anything, export.FormatCSV, mock.Anything, mock.Anything).Return("", errors.New("disk full"))

	cfg := DefaultExecutorConfig()
	cfg.Formats = []export.Format{export.FormatTablePDF, export.FormatCSV}
	result, err := NewExecutor(source, exporter, cfg, nil).Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusPartial, result.Status)
	assert.Equal(t, []string{"table.pdf"}, result.Files)
	assert.Equal(t, "disk full", result.Failures["csv"])
}

func TestExecutor_SourceFailure(t *testing.T) {
	source := new(MockSource)
	source.On("Apply", mock.Anything, mock.Anything).Return(nil, &reports.AggregationError{Err: errors.New("bad")})

	exporter := new(MockExporter)
	result, err := NewExecutor(source, exporter, DefaultExecutorConfig(), nil).Execute(context.Background())

	require.ErrorIs(t, err, reports.ErrAggregation)
	assert.Equal(t, StatusFailed, result.Status)
	exporter.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSnapshotScheduler_RunOnceRecordsStatus(t *testing.T) {
	source := new(MockSource)
	source.On("Apply", mock.Anything, mock.Anything).Return(sampleReport(), nil)
	exporter := new(MockExporter)
	exporter.On("Export", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("x.pdf", nil)

	s := NewSnapshotScheduler(NewExecutor(source, exporter, DefaultExecutorConfig(), nil), nil)
	require.NoError(t, s.Schedule("@daily"))

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	status := s.Status()
	assert.Equal(t, "@daily", status.Cron)
	require.NotNil(t, status.Last)
	assert.Equal(t, StatusCompleted, status.Last.Status)
}

func TestSnapshotScheduler_StartStop(t *testing.T) {
	s := NewSnapshotScheduler(NewExecutor(new(MockSource), new(MockExporter), DefaultExecutorConfig(), nil), nil)
	require.NoError(t, s.Schedule("0 0 3 * * *"))

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	assert.True(t, s.Status().Running)
	assert.Eventually(t, func() bool { return !s.Status().NextRun.IsZero() }, time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.Status().Running)
}

func TestSnapshotScheduler_RejectsBadSchedule(t *testing.T) {
	s := NewSnapshotScheduler(NewExecutor(new(MockSource), new(MockExporter), DefaultExecutorConfig(), nil), nil)
	assert.Error(t, s.Schedule("every tuesday"))
	assert.Empty(t, s.Status().Cron)
}

func TestCronHelpers(t *testing.T) {
	assert.NoError(t, ValidateCronExpression("0 9 * * 1-5"))
	assert.NoError(t, ValidateCronExpression("30 0 9 * * 1-5"))
	assert.Error(t, ValidateCronExpression("61 * * * *"))

	next, err := NextRun("0 0 * * *", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), next)

	assert.Equal(t, "Every weekday at 9:00 AM", DescribeCronExpression("0 9 * * 1-5"))
	assert.Equal(t, "*/5 * * * *", DescribeCronExpression("*/5 * * * *"))
}
