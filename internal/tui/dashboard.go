// Package tui renders a live progress dashboard for an in-progress fuzzing
// run, gated on the output stream being a terminal (spec's ambient stack
// carries an optional TUI layer the way the teacher's bubbletea/lipgloss
// wizard does, scaled down to one read-only status screen since this tool
// has no interactive menus to drive).
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatsMsg is one progress snapshot, sent over a channel by the engine's
// Runner.OnUpdate hook.
type StatsMsg struct {
	Iteration int
	MaxIter   int
	Crashes   int
	Hangs     int
	Elapsed   float64
}

type doneMsg struct{}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	crashStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hangStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// model is the bubbletea Model backing RunDashboard.
type model struct {
	stats   StatsMsg
	updates <-chan StatsMsg
	done    <-chan struct{}
}

func waitForUpdate(updates <-chan StatsMsg) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return s
	}
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return doneMsg{}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), waitForDone(m.done))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case StatsMsg:
		m.stats = v
		return m, waitForUpdate(m.updates)
	case doneMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if v.String() == "ctrl+c" || v.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	return fmt.Sprintf(
		"%s %d/%d   %s %d   %s %d   elapsed %.1fs\n",
		labelStyle.Render("iterations"), m.stats.Iteration, m.stats.MaxIter,
		crashStyle.Render("crashes"), m.stats.Crashes,
		hangStyle.Render("hangs"), m.stats.Hangs,
		m.stats.Elapsed,
	)
}

// RunDashboard drives the dashboard to completion: it blocks until done is
// closed (or a doneMsg otherwise arrives), reflecting every StatsMsg sent on
// updates in the meantime. Run it on the goroutine that owns the terminal
// while the fuzzing engine runs on another.
func RunDashboard(updates <-chan StatsMsg, done <-chan struct{}, maxIter int) error {
	p := tea.NewProgram(model{stats: StatsMsg{MaxIter: maxIter}, updates: updates, done: done})
	_, err := p.Run()
	return err
}
