package reports

import (
	"fmt"
	"strings"

	"game-reports/report-desk/internal/config"
	"game-reports/report-desk/internal/database"
)

// =====================================================
// Schema
// =====================================================

// Schema names the tables and fields the report pipeline reads
type Schema struct {
	PrimaryTable       database.Table
	LookupTable        database.Table
	TitleField         string
	CategoryIDField    string
	MetricField        string
	CategoryLabelField string
	LookupIDField      string
	LookupNameField    string
	DisplayColumns     []string
	AllCategory        string
	UnknownLabel       string
	SeriesName         string
}

// DefaultSchema describes the games/genres layout
func DefaultSchema() Schema {
	return Schema{
		PrimaryTable:       database.TableGames,
		LookupTable:        database.TableGenres,
		TitleField:         "title",
		CategoryIDField:    "genre_id",
		MetricField:        "sales",
		CategoryLabelField: "genre",
		LookupIDField:      "genre_id",
		LookupNameField:    "genre_name",
		DisplayColumns:     []string{"title", "genre", "platform", "sales", "release_date", "description"},
		AllCategory:        "All",
		UnknownLabel:       "Unknown",
		SeriesName:         "Sales",
	}
}

// SchemaFromConfig overlays configured names on the defaults
func SchemaFromConfig(cfg config.ReportConfig) (Schema, error) {
	s := DefaultSchema()

	if cfg.PrimaryTable != "" {
		t, err := database.ParseTable(cfg.PrimaryTable)
		if err != nil {
			return Schema{}, fmt.Errorf("invalid primary table: %w", err)
		}
		s.PrimaryTable = t
	}
	if cfg.LookupTable != "" {
		t, err := database.ParseTable(cfg.LookupTable)
		if err != nil {
			return Schema{}, fmt.Errorf("invalid lookup table: %w", err)
		}
		s.LookupTable = t
	}

	setIfNotEmpty(&s.TitleField, cfg.TitleField)
	setIfNotEmpty(&s.CategoryIDField, cfg.CategoryIDField)
	setIfNotEmpty(&s.MetricField, cfg.MetricField)
	setIfNotEmpty(&s.CategoryLabelField, cfg.CategoryLabelField)
	setIfNotEmpty(&s.LookupIDField, cfg.LookupIDField)
	setIfNotEmpty(&s.LookupNameField, cfg.LookupNameField)
	setIfNotEmpty(&s.AllCategory, cfg.AllCategory)
	setIfNotEmpty(&s.UnknownLabel, cfg.UnknownLabel)
	setIfNotEmpty(&s.SeriesName, cfg.SeriesName)
	if len(cfg.DisplayColumns) > 0 {
		s.DisplayColumns = append([]string(nil), cfg.DisplayColumns...)
	}

	return s, nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// =====================================================
// Records
// =====================================================

// Field is one raw column of a record
type Field struct {
	Name  string
	Value interface{}
}

// Record is a snapshot of one primary-table row. The declared fields are lifted
// out of Fields; CategoryLabel is only set after a join.
type Record struct {
	Title         string
	CategoryID    interface{}
	Metric        interface{}
	CategoryLabel string
	Fields        []Field

	labelField string
}

// NewRecord lifts the declared fields out of a database row
func NewRecord(row database.Row, schema Schema) Record {
	r := Record{
		CategoryID: row.Get(schema.CategoryIDField),
		Metric:     row.Get(schema.MetricField),
		Fields:     make([]Field, 0, len(row.Columns)),
		labelField: schema.CategoryLabelField,
	}
	if title := row.Get(schema.TitleField); title != nil {
		r.Title = stringify(title)
	}
	for _, col := range row.Columns {
		r.Fields = append(r.Fields, Field{Name: col, Value: row.Values[col]})
	}
	return r
}

// Value resolves a column name, including the derived label column
func (r Record) Value(name string) (interface{}, bool) {
	if name != "" && name == r.labelField {
		return r.CategoryLabel, true
	}
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// withLabel returns a copy carrying the joined label
func (r Record) withLabel(label string) Record {
	r.CategoryLabel = label
	r.Fields = append([]Field(nil), r.Fields...)
	return r
}

// LookupEntry is one row of the lookup table
type LookupEntry struct {
	ID   interface{}
	Name string
}

// Lookup maps a normalised category id to its display label
type Lookup map[string]string

// BuildLookup keys entries by the string form of their id. Later duplicates win.
func BuildLookup(entries []LookupEntry) Lookup {
	lookup := make(Lookup, len(entries))
	for _, e := range entries {
		lookup[lookupKey(e.ID)] = e.Name
	}
	return lookup
}

// Label returns the name for id, or ok=false when absent
func (l Lookup) Label(id interface{}) (string, bool) {
	if id == nil {
		return "", false
	}
	name, ok := l[lookupKey(id)]
	return name, ok
}

func lookupKey(id interface{}) string {
	return strings.TrimSpace(stringify(id))
}

// =====================================================
// Criteria and view models
// =====================================================

// Criteria is the user-chosen filter
type Criteria struct {
	SearchText string `json:"search" form:"search"`
	Category   string `json:"category" form:"category"`
}

// IsAll reports whether the category constraint is the "all" sentinel
func (c Criteria) IsAll(schema Schema) bool {
	return c.Category == "" || c.Category == schema.AllCategory
}

// TableViewModel is a table ready to render. Every row holds every column.
type TableViewModel struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// Empty reports whether the table carries no rows
func (t TableViewModel) Empty() bool {
	return len(t.Rows) == 0
}

// ChartViewModel is a bar chart ready to render. Each series has one value per axis label.
type ChartViewModel struct {
	AxisLabels  []string           `json:"axis_labels"`
	Series      map[string][]int64 `json:"series"`
	SeriesOrder []string           `json:"series_order"`
}

// Empty reports whether there is nothing to draw
func (c ChartViewModel) Empty() bool {
	if len(c.AxisLabels) == 0 {
		return true
	}
	for _, values := range c.Series {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Names returns series names in display order
func (c ChartViewModel) Names() []string {
	if len(c.SeriesOrder) == len(c.Series) {
		return c.SeriesOrder
	}
	return sortedKeys(c.Series)
}

// Validate checks that every series is as long as the axis
func (c ChartViewModel) Validate() error {
	for _, name := range sortedKeys(c.Series) {
		if got := len(c.Series[name]); got != len(c.AxisLabels) {
			return &ChartShapeError{Series: name, Want: len(c.AxisLabels), Got: got}
		}
	}
	return nil
}

// Summary is the pair shown in the summary line
type Summary struct {
	Count int   `json:"count"`
	Total int64 `json:"total"`
}

// Text renders the summary line
func (s Summary) Text() string {
	return fmt.Sprintf("Total games: %d | Total sales: %d", s.Count, s.Total)
}

// Report is the atomic output of one filter apply
type Report struct {
	Criteria Criteria       `json:"criteria"`
	Records  []Record       `json:"-"`
	Table    TableViewModel `json:"table"`
	Chart    ChartViewModel `json:"chart"`
	Summary  Summary        `json:"summary"`
}

// EmptyReport is the fallback shown when there is no data to report on
func EmptyReport(criteria Criteria, columns []string) *Report {
	return &Report{
		Criteria: criteria,
		Records:  []Record{},
		Table:    TableViewModel{Columns: append([]string(nil), columns...), Rows: []map[string]string{}},
		Chart:    ChartViewModel{AxisLabels: []string{}, Series: map[string][]int64{}},
		Summary:  Summary{},
	}
}
