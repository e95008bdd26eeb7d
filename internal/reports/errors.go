package reports

import (
	"errors"
	"fmt"
)

var (
	// ErrAggregation matches every AggregationError
	ErrAggregation = errors.New("metric is not numeric")
	// ErrChartShape matches every ChartShapeError
	ErrChartShape = errors.New("chart series length does not match axis")
)

// AggregationError aborts a filter apply when a metric cannot be reduced to an integer
type AggregationError struct {
	Index int
	Title string
	Value interface{}
	Err   error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("record %d (%q): cannot aggregate metric %v: %v", e.Index, e.Title, e.Value, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

func (e *AggregationError) Is(target error) bool { return target == ErrAggregation }

// ChartShapeError reports a series whose length differs from the axis
type ChartShapeError struct {
	Series string
	Want   int
	Got    int
}

func (e *ChartShapeError) Error() string {
	return fmt.Sprintf("series %q has %d values for %d labels", e.Series, e.Got, e.Want)
}

func (e *ChartShapeError) Is(target error) bool { return target == ErrChartShape }
