package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows in a compact fixed-width layout, used by list-agents
// output. Column widths follow the widest cell per column,
// optionally capped by MaxWidth, with overflowing cells truncated to an
// ellipsis — agent names and cron expressions vary wildly in length and a
// ragged table is harder to scan than a clipped one.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // max width per column; 0 means uncapped
}

// ColumnWidths returns the effective width of each column.
func (t *Table) ColumnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	if t.MaxWidth > 0 {
		for i := range widths {
			if widths[i] > t.MaxWidth {
				widths[i] = t.MaxWidth
			}
		}
	}
	return widths
}

// Render draws the header, a rule, and every row.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.ColumnWidths()
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	cellStyle := lipgloss.NewStyle().Foreground(ColorText)
	ruleStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	var sb strings.Builder
	sb.WriteString(" " + renderCells(t.Headers, widths, headerStyle) + "\n")

	ruleParts := make([]string, len(widths))
	for i, w := range widths {
		ruleParts[i] = ruleStyle.Render(strings.Repeat("─", w))
	}
	sb.WriteString(" " + strings.Join(ruleParts, "──") + "\n")

	for _, row := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i := range t.Headers {
			if i < len(row) {
				cells[i] = clip(row[i], widths[i])
			}
		}
		sb.WriteString(" " + renderCells(cells, widths, cellStyle) + "\n")
	}
	return sb.String()
}

func renderCells(cells []string, widths []int, style lipgloss.Style) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = style.Render(padRight(c, widths[i]))
	}
	return strings.Join(out, "  ")
}

// clip truncates a cell to width, marking the cut with an ellipsis when
// there is room for one.
func clip(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width >= 2 {
		return s[:width-1] + "…"
	}
	if width == 1 {
		return "…"
	}
	return ""
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
