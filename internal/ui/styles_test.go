package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStyles(t *testing.T) {
	// Force a color profile so assertions hold off-tty too.
	lipgloss.SetColorProfile(termenv.ANSI256)

	out := StylePrefixDone.Render("PROCESSED")
	assert.Contains(t, out, "PROCESSED")
	assert.NotEqual(t, "PROCESSED", out, "style should add ANSI codes when forced")

	out = StylePrefixError.Render("FAILED")
	assert.Contains(t, out, "FAILED")
	assert.NotEqual(t, "FAILED", out)
}

func TestIcon(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)

	out := Icon("✗", StyleError)
	assert.Contains(t, out, "✗")
	assert.NotEqual(t, "✗", out)
}
