package reports

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"game-reports/report-desk/internal/notifications"
)

const engineSource = "report-engine"

// Engine runs the filter-and-aggregate pipeline. Every Apply re-reads the data.
type Engine struct {
	service  *Service
	notifier notifications.Notifier
	schema   Schema
	logger   *zap.Logger
}

// NewEngine creates a new engine
func NewEngine(service *Service, notifier notifications.Notifier, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewLogNotifier(logger)
	}
	return &Engine{
		service:  service,
		notifier: notifier,
		schema:   service.Schema(),
		logger:   logger,
	}
}

// Schema returns the schema the engine filters with
func (e *Engine) Schema() Schema {
	return e.schema
}

// Apply fetches, joins, filters and aggregates, and projects the result.
//
// A failed or empty primary fetch is not an error: the caller gets the empty report
// and a notification is raised. A failed lookup fetch degrades every label to the
// unknown sentinel. A metric that cannot be aggregated fails the whole call.
func (e *Engine) Apply(ctx context.Context, criteria Criteria) (*Report, error) {
	if criteria.Category == "" {
		criteria.Category = e.schema.AllCategory
	}

	records, err := e.service.FetchPrimary(ctx)
	if err != nil {
		e.notifier.Notify(ctx, notifications.Error(engineSource,
			fmt.Sprintf("Could not load %s: %v", e.schema.PrimaryTable, err)))
		return EmptyReport(criteria, e.schema.DisplayColumns), nil
	}
	if len(records) == 0 {
		e.notifier.Notify(ctx, notifications.Debug(engineSource, "No data to filter"))
		return EmptyReport(criteria, e.schema.DisplayColumns), nil
	}

	entries, err := e.service.FetchLookup(ctx)
	if err != nil {
		e.notifier.Notify(ctx, notifications.Warning(engineSource,
			fmt.Sprintf("Could not load %s, categories shown as %q: %v", e.schema.LookupTable, e.schema.UnknownLabel, err)))
		entries = nil
	}

	joined := Join(records, BuildLookup(entries), e.schema.UnknownLabel)
	filtered := Filter(joined, criteria, e.schema)

	summary, err := Aggregate(filtered)
	if err != nil {
		e.logger.Error("Failed to aggregate report", zap.Error(err))
		return nil, err
	}

	e.logger.Debug("Report filtered",
		zap.String("search", criteria.SearchText),
		zap.String("category", criteria.Category),
		zap.Int("matched", summary.Count),
		zap.Int("total", len(records)))

	return &Report{
		Criteria: criteria,
		Records:  filtered,
		Table:    ToTableViewModel(e.schema.DisplayColumns, filtered),
		Chart:    ChartFromRecords(filtered, e.schema.SeriesName),
		Summary:  summary,
	}, nil
}

// Join labels each record with its lookup name, or unknown when the id has no entry
func Join(records []Record, lookup Lookup, unknown string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		label, ok := lookup.Label(r.CategoryID)
		if !ok {
			label = unknown
		}
		out = append(out, r.withLabel(label))
	}
	return out
}

// Filter keeps records matching criteria, in input order
func Filter(records []Record, criteria Criteria, schema Schema) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if Matches(r, criteria, schema) {
			out = append(out, r)
		}
	}
	return out
}

// Matches is the filter predicate: the search text is a case-insensitive substring
// of any field (the label included), and the category is "all" or equals the label exactly.
func Matches(r Record, criteria Criteria, schema Schema) bool {
	if !criteria.IsAll(schema) && r.CategoryLabel != criteria.Category {
		return false
	}
	if criteria.SearchText == "" {
		return true
	}

	needle := strings.ToLower(criteria.SearchText)
	if strings.Contains(strings.ToLower(r.CategoryLabel), needle) {
		return true
	}
	for _, f := range r.Fields {
		if strings.Contains(strings.ToLower(stringify(f.Value)), needle) {
			return true
		}
	}
	return false
}

// Aggregate counts records and sums their metrics truncated toward zero
func Aggregate(records []Record) (Summary, error) {
	var total int64
	for i, r := range records {
		n, err := CoerceMetric(r.Metric)
		if err != nil {
			return Summary{}, &AggregationError{Index: i, Title: r.Title, Value: r.Metric, Err: err}
		}
		if (n > 0 && total > math.MaxInt64-n) || (n < 0 && total < math.MinInt64-n) {
			return Summary{}, &AggregationError{Index: i, Title: r.Title, Value: r.Metric,
				Err: fmt.Errorf("%w: running total %d", errOverflow, total)}
		}
		total += n
	}
	return Summary{Count: len(records), Total: total}, nil
}
