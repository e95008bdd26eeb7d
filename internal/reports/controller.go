package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"game-reports/report-desk/internal/notifications"
)

const controllerSource = "report-controller"

// Presenter is what a presentation shell implements to display a report
type Presenter interface {
	SetTable(table TableViewModel)
	SetChart(chart ChartViewModel)
	SetCategories(options []string)
	UpdateSummary(summary Summary)
}

// Controller drives a Presenter from user events
type Controller struct {
	mu        sync.Mutex
	engine    *Engine
	service   *Service
	presenter Presenter
	notifier  notifications.Notifier
	logger    *zap.Logger
	last      *Report
}

// NewController creates a controller for one presenter
func NewController(engine *Engine, service *Service, presenter Presenter, notifier notifications.Notifier, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewLogNotifier(logger)
	}
	return &Controller{
		engine:    engine,
		service:   service,
		presenter: presenter,
		notifier:  notifier,
		logger:    logger,
	}
}

// Initialize fills the category selector and shows the unfiltered model.
// Failures are reported through the notifier; the shell keeps running.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	schema := c.service.Schema()

	options, err := c.service.CategoryOptions(ctx)
	if err != nil {
		c.notifier.Notify(ctx, notifications.Warning(controllerSource,
			fmt.Sprintf("Could not load categories: %v", err)))
	}
	c.presenter.SetCategories(options)

	model, err := c.service.LoadModel(ctx)
	if err != nil {
		c.notifier.Notify(ctx, notifications.Error(controllerSource,
			fmt.Sprintf("Could not load %s: %v", schema.PrimaryTable, err)))
		empty := EmptyReport(Criteria{Category: schema.AllCategory}, nil)
		c.present(empty)
		return err
	}

	records := make([]Record, 0, len(model.Rows))
	for _, row := range model.Rows {
		records = append(records, NewRecord(row, schema))
	}

	report := &Report{
		Criteria: Criteria{Category: schema.AllCategory},
		Records:  records,
		Table:    TableFromModel(model),
		Chart:    ChartFromRecords(records, schema.SeriesName),
	}

	summary, err := Aggregate(records)
	if err != nil {
		c.notifier.Notify(ctx, notifications.Warning(controllerSource,
			fmt.Sprintf("Summary unavailable: %v", err)))
	}
	report.Summary = summary

	c.present(report)
	return nil
}

// ApplyFilters is the single inbound event. On success the table, chart and summary
// are replaced together. When aggregation or chart validation fails nothing is
// pushed, the previous display stays, and the error is returned.
func (c *Controller) ApplyFilters(ctx context.Context, searchText, category string) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report, err := c.engine.Apply(ctx, Criteria{SearchText: searchText, Category: category})
	if err == nil {
		err = report.Chart.Validate()
	}
	if err != nil {
		c.logger.Error("Failed to apply filters",
			zap.String("search", searchText),
			zap.String("category", category),
			zap.Error(err))
		c.notifier.Notify(ctx, notifications.Error(controllerSource, failureMessage(err)))
		return nil, err
	}

	c.present(report)
	return report, nil
}

// Last returns the report currently on display
func (c *Controller) Last() *Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Controller) present(report *Report) {
	c.presenter.SetTable(report.Table)
	c.presenter.SetChart(report.Chart)
	c.presenter.UpdateSummary(report.Summary)
	c.last = report
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrAggregation):
		return fmt.Sprintf("Could not total sales: %v", err)
	case errors.Is(err, ErrChartShape):
		return fmt.Sprintf("Could not draw chart: %v", err)
	default:
		return fmt.Sprintf("Could not apply filters: %v", err)
	}
}

// SnapshotPresenter keeps the latest view models in memory for shells that render on demand
type SnapshotPresenter struct {
	mu         sync.RWMutex
	table      TableViewModel
	chart      ChartViewModel
	categories []string
	summary    Summary
}

// NewSnapshotPresenter creates an empty snapshot presenter
func NewSnapshotPresenter() *SnapshotPresenter {
	return &SnapshotPresenter{}
}

func (p *SnapshotPresenter) SetTable(table TableViewModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table = table
}

func (p *SnapshotPresenter) SetChart(chart ChartViewModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chart = chart
}

func (p *SnapshotPresenter) SetCategories(options []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.categories = append([]string(nil), options...)
}

func (p *SnapshotPresenter) UpdateSummary(summary Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary = summary
}

// Table returns the table on display
func (p *SnapshotPresenter) Table() TableViewModel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table
}

// Chart returns the chart on display
func (p *SnapshotPresenter) Chart() ChartViewModel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chart
}

// Categories returns the selector options
func (p *SnapshotPresenter) Categories() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.categories...)
}

// Summary returns the summary on display
func (p *SnapshotPresenter) Summary() Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}
