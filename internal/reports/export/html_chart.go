package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	htmlChartWidth  = "100%"
	htmlChartHeight = "520px"
	rotateAfter     = 8
)

// BuildBarChart turns a chart document into an interactive echarts bar chart
func BuildBarChart(chart Chart) *charts.Bar {
	title := chart.Title
	if title == "" {
		title = "Chart Export"
	}

	bar := charts.NewBar()
	if chart.Empty() {
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: htmlChartWidth, Height: "400px"}),
			charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "No data"}),
		)
		return bar
	}

	axisLabel := &opts.AxisLabel{Interval: "0"}
	if len(chart.Labels) > rotateAfter {
		axisLabel.Rotate = 45
	}

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: htmlChartWidth, Height: htmlChartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: axisLabel}),
	)
	bar.SetXAxis(chart.Labels)

	for _, s := range chart.Series {
		data := make([]opts.BarData, len(chart.Labels))
		for i := range chart.Labels {
			var v int64
			if i < len(s.Values) {
				v = s.Values[i]
			}
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(s.Name, data)
	}

	return bar
}

// RenderChartHTML writes a standalone HTML page with the chart
func RenderChartHTML(w io.Writer, chart Chart) error {
	if err := BuildBarChart(chart).Render(w); err != nil {
		return fmt.Errorf("failed to render chart html: %w", err)
	}
	return nil
}
