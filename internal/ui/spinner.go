package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// doneMsg ends a progress program.
type doneMsg struct{}

// progressModel renders a spinner next to a status message until doneMsg
// arrives. It is intentionally minimal: one spinner, one line, no
// alt-screen, so interleaved log output above it stays readable.
type progressModel struct {
	spinner spinner.Model
	message string
	done    bool
}

func newProgressModel(message string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StylePrimary
	return progressModel{spinner: s, message: message}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.message + "\n"
}

// RunWithSpinner runs fn while a spinner with the given message animates,
// returning fn's error. When stdout is not a terminal (piped output, CI),
// fn runs directly with no spinner.
func RunWithSpinner(message string, fn func() error) error {
	if !IsInteractive() {
		return fn()
	}

	errc := make(chan error, 1)
	p := tea.NewProgram(newProgressModel(message))
	go func() {
		errc <- fn()
		p.Send(doneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		// The terminal refused the program; fn is still running, so its
		// result is still the one that matters.
		return <-errc
	}
	return <-errc
}
