package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_ColumnWidths(t *testing.T) {
	table := &Table{
		Headers: []string{"ABBR", "NAME", "CRON"},
		Rows: [][]string{
			{"EIC", "Email Ingest (EIC)", "-"},
			{"GDR", "Daily Review and Rollup (GDR)", "0 1 * * *"},
		},
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 4, widths[0])  // "ABBR" header is longest
	assert.Equal(t, 29, widths[1]) // "Daily Review and Rollup (GDR)"
	assert.Equal(t, 9, widths[2])  // "0 1 * * *"
}

func TestTable_ColumnWidths_MaxWidth(t *testing.T) {
	table := &Table{
		Headers:  []string{"ABBR", "NAME"},
		Rows:     [][]string{{"X", "An agent whose display name runs far too long"}},
		MaxWidth: 20,
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 4, widths[0])
	assert.Equal(t, 20, widths[1]) // capped
}

func TestTable_Render(t *testing.T) {
	table := &Table{
		Headers: []string{"ABBR", "EXECUTOR"},
		Rows: [][]string{
			{"EIC", "claude_code"},
			{"GDR", "gemini_cli"},
		},
	}

	output := table.Render()

	assert.Contains(t, output, "ABBR")
	assert.Contains(t, output, "EXECUTOR")
	assert.Contains(t, output, "EIC")
	assert.Contains(t, output, "gemini_cli")
	assert.Contains(t, output, "─")
}

func TestTable_Render_Empty(t *testing.T) {
	table := &Table{}
	assert.Empty(t, table.Render())
}

func TestTable_Render_Truncation(t *testing.T) {
	table := &Table{
		Headers:  []string{"NAME"},
		Rows:     [][]string{{"An agent display name well past the cap"}},
		MaxWidth: 10,
	}

	assert.Contains(t, table.Render(), "…")
}

func TestClip(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"claude_code", 11, "claude_code"},
		{"claude_code", 8, "claude_…"},
		{"ab", 1, "…"},
		{"ab", 0, ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, clip(tc.input, tc.width))
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"EIC", 5, "EIC  "},
		{"hello", 5, "hello"},
		{"longer", 3, "longer"},
		{"", 3, "   "},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, padRight(tc.input, tc.width))
	}
}

func TestTable_Render_RowsHaveFewerColumns(t *testing.T) {
	table := &Table{
		Headers: []string{"ABBR", "NAME", "CRON"},
		Rows: [][]string{
			{"EIC", "Email Ingest (EIC)"}, // no cron column
		},
	}

	output := table.Render()

	assert.Contains(t, output, "ABBR")
	assert.Contains(t, output, "EIC")
	lines := strings.Split(strings.TrimSpace(output), "\n")
	assert.Equal(t, 3, len(lines)) // header, rule, one row
}
