package reports

import (
	"strconv"

	"game-reports/report-desk/internal/database"
	"game-reports/report-desk/internal/reports/export"
)

// ToTableViewModel projects records onto the given columns. Absent values become "".
func ToTableViewModel(columns []string, records []Record) TableViewModel {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			v, _ := r.Value(col)
			row[col] = stringify(v)
		}
		rows = append(rows, row)
	}
	return TableViewModel{
		Columns: append([]string(nil), columns...),
		Rows:    rows,
	}
}

// TableFromModel projects a raw model using its catalog columns
func TableFromModel(model *database.Model) TableViewModel {
	if model == nil {
		return TableViewModel{Columns: []string{}, Rows: []map[string]string{}}
	}
	rows := make([]map[string]string, 0, len(model.Rows))
	for _, r := range model.Rows {
		row := make(map[string]string, len(model.Columns))
		for _, col := range model.Columns {
			row[col] = stringify(r.Get(col))
		}
		rows = append(rows, row)
	}
	return TableViewModel{
		Columns: append([]string(nil), model.Columns...),
		Rows:    rows,
	}
}

// ToChartViewModel coerces every value to a finite integer; NaN, infinities, missing
// and unparsable values become 0. Series lengths are not checked here, see Validate.
// order fixes the series display order; by default series are sorted by name.
func ToChartViewModel(axisLabels []string, series map[string][]interface{}, order ...string) ChartViewModel {
	out := ChartViewModel{
		AxisLabels: append([]string{}, axisLabels...),
		Series:     make(map[string][]int64, len(series)),
	}
	for name, values := range series {
		coerced := make([]int64, len(values))
		for i, v := range values {
			coerced[i] = chartValue(v)
		}
		out.Series[name] = coerced
	}

	if len(order) == len(series) {
		out.SeriesOrder = append([]string(nil), order...)
	} else {
		out.SeriesOrder = sortedKeys(out.Series)
	}
	return out
}

// ChartFromRecords builds the title x metric chart
func ChartFromRecords(records []Record, seriesName string) ChartViewModel {
	labels := make([]string, 0, len(records))
	values := make([]interface{}, 0, len(records))
	for _, r := range records {
		labels = append(labels, r.Title)
		values = append(values, r.Metric)
	}
	if len(records) == 0 {
		return ChartViewModel{AxisLabels: []string{}, Series: map[string][]int64{}, SeriesOrder: []string{}}
	}
	return ToChartViewModel(labels, map[string][]interface{}{seriesName: values}, seriesName)
}

// ToDocument converts a report into an export document
func ToDocument(report *Report, title string) export.Document {
	if report == nil {
		report = EmptyReport(Criteria{}, nil)
	}

	chart := export.Chart{Title: title, Labels: append([]string(nil), report.Chart.AxisLabels...)}
	for _, name := range report.Chart.Names() {
		chart.Series = append(chart.Series, export.Series{
			Name:   name,
			Values: append([]int64(nil), report.Chart.Series[name]...),
		})
	}

	return export.Document{
		Table: export.Table{
			Title:   title,
			Columns: append([]string(nil), report.Table.Columns...),
			Rows:    report.Table.Rows,
		},
		Chart: chart,
		Summary: []export.SummaryItem{
			{Label: "Total games", Value: strconv.Itoa(report.Summary.Count)},
			{Label: "Total sales", Value: strconv.FormatInt(report.Summary.Total, 10)},
		},
	}
}
