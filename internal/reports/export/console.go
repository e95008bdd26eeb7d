package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderConsoleTable prints a table with its summary as the footer
func RenderConsoleTable(w io.Writer, t Table, summary []SummaryItem) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	if t.Title != "" {
		tbl.SetTitle(t.Title)
	}

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tbl.AppendHeader(header)

	for _, cells := range t.Cells() {
		row := make(table.Row, len(cells))
		for i, v := range cells {
			row[i] = v
		}
		tbl.AppendRow(row)
	}

	if len(summary) > 0 {
		footer := make(table.Row, 0, len(summary))
		for _, item := range summary {
			footer = append(footer, fmt.Sprintf("%s: %s", item.Label, item.Value))
		}
		tbl.AppendFooter(footer)
	}

	if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}
