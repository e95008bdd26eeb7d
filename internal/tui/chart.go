package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"game-reports/report-desk/internal/reports"
)

const (
	maxLabelWidth = 18
	maxBars       = 20
)

var (
	barStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#4472C4")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#ED7D31")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#70AD47")),
	}
	axisStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// renderChart draws one horizontal bar per axis label and series. A chart that
// fails validation is replaced with a placeholder.
func renderChart(chart reports.ChartViewModel, width int) string {
	if err := chart.Validate(); err != nil {
		return axisStyle.Render(fmt.Sprintf("Chart unavailable: %v", err))
	}
	if chart.Empty() {
		return axisStyle.Render("No chart data")
	}

	names := chart.Names()
	var peak int64
	for _, name := range names {
		for _, v := range chart.Series[name] {
			if abs(v) > peak {
				peak = abs(v)
			}
		}
	}

	labelWidth := 0
	for _, l := range chart.AxisLabels {
		labelWidth = maxInt(labelWidth, len([]rune(l)))
	}
	labelWidth = clamp(labelWidth, 1, maxLabelWidth)
	barWidth := maxInt(1, width-labelWidth-12)

	var b strings.Builder
	for i, label := range chart.AxisLabels {
		if i == maxBars {
			b.WriteString(axisStyle.Render(fmt.Sprintf("… %d more", len(chart.AxisLabels)-maxBars)))
			b.WriteString("\n")
			break
		}
		for si, name := range names {
			v := chart.Series[name][i]
			prefix := strings.Repeat(" ", labelWidth)
			if si == 0 {
				prefix = padRight(truncate(label, labelWidth), labelWidth)
			}
			n := 0
			if peak > 0 {
				n = int(float64(abs(v)) / float64(peak) * float64(barWidth))
			}
			style := barStyles[si%len(barStyles)]
			b.WriteString(axisStyle.Render(prefix + " │"))
			b.WriteString(style.Render(strings.Repeat("█", n)))
			b.WriteString(fmt.Sprintf(" %d\n", v))
		}
	}

	if len(names) > 1 {
		legend := make([]string, len(names))
		for si, name := range names {
			legend[si] = barStyles[si%len(barStyles)].Render("█ " + name)
		}
		b.WriteString(strings.Join(legend, "  "))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func padRight(s string, n int) string {
	if l := len([]rune(s)); l < n {
		return s + strings.Repeat(" ", n-l)
	}
	return s
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
