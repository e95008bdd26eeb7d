// Package tui is the terminal presentation shell for the sales report.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"game-reports/report-desk/internal/notifications"
	"game-reports/report-desk/internal/reports"
	"game-reports/report-desk/internal/reports/export"
)

const (
	tableHeight   = 10
	minColWidth   = 6
	maxColWidth   = 28
	tickInterval  = 500 * time.Millisecond
	tuiSource     = "tui"
	exportTitle   = "Game Sales"
	defaultWidth  = 100
	defaultHeight = 40
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	toastStyles  = map[notifications.Severity]lipgloss.Style{
		notifications.SeverityInfo: lipgloss.NewStyle().
			Padding(0, 1).Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8DC8")),
		notifications.SeverityWarning: lipgloss.NewStyle().
			Padding(0, 1).Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")),
		notifications.SeverityError: lipgloss.NewStyle().
			Padding(0, 1).Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#FF4D4F")),
	}
)

type tickMsg time.Time

// Options configures the shell
type Options struct {
	OutputDir string
}

// Model implements tea.Model and reports.Presenter
type Model struct {
	ctx        context.Context
	controller *reports.Controller
	toasts     *notifications.Manager
	exporter   *export.Exporter
	logger     *zap.Logger
	opts       Options

	search      textinput.Model
	categories  []string
	categoryIdx int
	table       table.Model
	columns     []string
	chart       reports.ChartViewModel
	summary     reports.Summary

	width  int
	height int
}

// NewModel builds the shell and its controller
func NewModel(
	ctx context.Context,
	engine *reports.Engine,
	service *reports.Service,
	toasts *notifications.Manager,
	exporter *export.Exporter,
	opts Options,
	logger *zap.Logger,
) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Model{
		ctx:        ctx,
		toasts:     toasts,
		exporter:   exporter,
		logger:     logger,
		opts:       opts,
		categories: []string{service.Schema().AllCategory},
		width:      defaultWidth,
		height:     defaultHeight,
	}

	m.search = textinput.New()
	m.search.Placeholder = "search title, genre, platform..."
	m.search.CharLimit = 0
	m.search.Prompt = "Search: "
	m.search.Focus()

	m.table = table.New(table.WithHeight(tableHeight), table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Bold(true)
	m.table.SetStyles(styles)

	m.controller = reports.NewController(engine, service, m, toasts, logger)
	return m
}

// Controller returns the controller driving this shell
func (m *Model) Controller() *reports.Controller {
	return m.controller
}

// =====================================================
// reports.Presenter
// =====================================================

func (m *Model) SetTable(tv reports.TableViewModel) {
	m.columns = append([]string(nil), tv.Columns...)

	widths := make([]int, len(tv.Columns))
	for i, col := range tv.Columns {
		widths[i] = len(col)
	}
	rows := make([]table.Row, 0, len(tv.Rows))
	for _, r := range tv.Rows {
		row := make(table.Row, len(tv.Columns))
		for i, col := range tv.Columns {
			row[i] = r[col]
			if l := len(row[i]); l > widths[i] {
				widths[i] = l
			}
		}
		rows = append(rows, row)
	}

	cols := make([]table.Column, len(tv.Columns))
	for i, col := range tv.Columns {
		cols[i] = table.Column{Title: col, Width: clamp(widths[i], minColWidth, maxColWidth)}
	}

	// clear rows first so no row is wider than the new column set
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *Model) SetChart(chart reports.ChartViewModel) {
	m.chart = chart
}

func (m *Model) SetCategories(options []string) {
	if len(options) == 0 {
		return
	}
	m.categories = append([]string(nil), options...)
	m.categoryIdx = 0
}

func (m *Model) UpdateSummary(summary reports.Summary) {
	m.summary = summary
}

// Category is the selected category option
func (m *Model) Category() string {
	return m.categories[m.categoryIdx]
}

// =====================================================
// tea.Model
// =====================================================

// Init loads categories and the unfiltered table before the first frame
func (m *Model) Init() tea.Cmd {
	if err := m.controller.Initialize(m.ctx); err != nil {
		m.logger.Warn("Starting without data", zap.Error(err))
	}
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = maxInt(10, msg.Width-12)
		m.table.SetWidth(msg.Width)
		return m, nil

	case tickMsg:
		m.toasts.Expire(time.Time(msg))
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			m.applyFilters()
			return m, nil
		case "tab":
			m.cycleCategory(1)
			return m, nil
		case "shift+tab":
			m.cycleCategory(-1)
			return m, nil
		case "esc":
			m.toasts.Dismiss()
			return m, nil
		case "ctrl+t":
			m.exportLast(export.FormatTablePDF)
			return m, nil
		case "ctrl+g":
			m.exportLast(export.FormatChartPDF)
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// applyFilters runs synchronously; the UI waits for the result
func (m *Model) applyFilters() {
	if _, err := m.controller.ApplyFilters(m.ctx, m.search.Value(), m.Category()); err != nil {
		m.logger.Debug("Filter apply kept previous display", zap.Error(err))
	}
}

func (m *Model) cycleCategory(step int) {
	n := len(m.categories)
	m.categoryIdx = ((m.categoryIdx+step)%n + n) % n
}

func (m *Model) exportLast(format export.Format) {
	doc := reports.ToDocument(m.controller.Last(), exportTitle)
	name := fmt.Sprintf("game-sales-%s-%s", strings.TrimPrefix(string(format), "pdf-"), time.Now().Format("20060102-150405"))

	location, err := m.exporter.Export(m.ctx, format, doc, filepath.Join(m.opts.OutputDir, name))
	if err != nil {
		m.toasts.Notify(m.ctx, notifications.Error(tuiSource, fmt.Sprintf("Export failed: %v", err)))
		return
	}
	m.toasts.Notify(m.ctx, notifications.Info(tuiSource, "Saved "+location))
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Game Sales Report"))
	b.WriteString("\n\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Category "))
	b.WriteString(categoryStyle.Render(m.Category()))
	b.WriteString("\n\n")

	if len(m.columns) == 0 {
		b.WriteString(labelStyle.Render("No data"))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n\n")

	b.WriteString(renderChart(m.chart, maxInt(20, m.width/2)))
	b.WriteString("\n")
	b.WriteString(summaryStyle.Render(m.summary.Text()))
	b.WriteString("\n")

	if n, ok := m.toasts.Current(); ok {
		style, found := toastStyles[n.Severity]
		if !found {
			style = toastStyles[notifications.SeverityInfo]
		}
		b.WriteString(style.Render(n.Message))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter apply • tab/shift+tab category • ctrl+t table pdf • ctrl+g chart pdf • esc dismiss • ctrl+c quit"))
	return b.String()
}

// Run starts the program on the alternate screen
func Run(m *Model) error {
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run tui: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
