package ui

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"empty", "", 10, ""},
		{"short string", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"very short max", "hello", 3, "hel"},
		{"zero max disables", "hello", 0, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		contains []string
	}{
		{"short text", "watching vault", 20, []string{"watching vault"}},
		{"needs wrap", "executor resolution failed for agent", 12, []string{"executor", "resolution", "failed", "agent"}},
		{"zero width disables", "hello", 0, []string{"hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapText(tt.input, tt.width)
			for _, substr := range tt.contains {
				if !strings.Contains(result, substr) {
					t.Errorf("WrapText(%q, %d) = %q, expected to contain %q", tt.input, tt.width, result, substr)
				}
			}
		})
	}
}

func TestPanel(t *testing.T) {
	t.Run("basic panel", func(t *testing.T) {
		panel := NewPanel("Doctor", "all checks passed")
		result := panel.Render()

		if !strings.Contains(result, "Doctor") {
			t.Error("Panel should contain title")
		}
		if !strings.Contains(result, "all checks passed") {
			t.Error("Panel should contain content")
		}
	})

	t.Run("panel without title", func(t *testing.T) {
		panel := NewPanel("", "content only")
		result := panel.Render()

		if !strings.Contains(result, "content only") {
			t.Error("Panel should contain content")
		}
	})

	t.Run("panel with custom color", func(t *testing.T) {
		panel := NewPanel("Info", "Details").WithBorderColor(ColorWarning)
		result := panel.Render()

		if !strings.Contains(result, "Info") {
			t.Error("Panel should contain title")
		}
	})

	t.Run("convenience functions", func(t *testing.T) {
		info := RenderInfoPanel("Info", "content")
		success := RenderSuccessPanel("Success", "content")
		errPanel := RenderErrorPanel("Error", "content")
		warning := RenderWarningPanel("Warning", "content")

		for title, out := range map[string]string{
			"Info": info, "Success": success, "Error": errPanel, "Warning": warning,
		} {
			if !strings.Contains(out, title) {
				t.Errorf("%s panel should contain its title", title)
			}
		}
	})
}
