package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// IsInteractive checks if stdout is a terminal.
// This is useful to avoid prompting when piping output or running in non-interactive environments.
func IsInteractive() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Truncate shortens s to maxLen bytes, appending "..." when content is cut
// and maxLen is above 3; with a maxLen of 1 to 3 it cuts without an
// ellipsis. A maxLen of 0 disables truncation. Callers displaying agent names or file
// paths should prefer this over manual slicing.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// WrapText wraps s into lines no longer than width, breaking on word
// boundaries; a single word longer than width stays whole on its own line.
// A width of 0 disables wrapping.
func WrapText(s string, width int) string {
	if width <= 0 {
		return s
	}

	words := strings.Fields(s)
	var lines []string
	var current string
	for _, w := range words {
		switch {
		case current == "":
			current = w
		case len(current)+1+len(w) <= width:
			current += " " + w
		default:
			lines = append(lines, current)
			current = w
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return strings.Join(lines, "\n")
}

// Panel renders a bordered block with an optional title.
type Panel struct {
	Title       string
	Content     string
	BorderColor lipgloss.Color
}

// NewPanel creates a Panel with the default border color.
func NewPanel(title, content string) *Panel {
	return &Panel{Title: title, Content: content, BorderColor: ColorSecondary}
}

// WithBorderColor overrides the panel's border color.
func (p *Panel) WithBorderColor(c lipgloss.Color) *Panel {
	p.BorderColor = c
	return p
}

// Render draws the panel as a rounded-border box.
func (p *Panel) Render() string {
	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.BorderColor).
		Padding(0, 1)

	var sb strings.Builder
	if p.Title != "" {
		sb.WriteString(StyleSectionTitle.Render(p.Title))
		sb.WriteString("\n")
	}
	sb.WriteString(p.Content)

	return style.Render(sb.String())
}

// RenderInfoPanel renders a panel with the primary accent color.
func RenderInfoPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorPrimary).Render()
}

// RenderSuccessPanel renders a panel with the success accent color.
func RenderSuccessPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorSuccess).Render()
}

// RenderErrorPanel renders a panel with the error accent color.
func RenderErrorPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorError).Render()
}

// RenderWarningPanel renders a panel with the warning accent color.
func RenderWarningPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorWarning).Render()
}
