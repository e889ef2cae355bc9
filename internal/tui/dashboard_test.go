package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelUpdateAppliesStats(t *testing.T) {
	m := model{stats: StatsMsg{MaxIter: 100}}
	next, cmd := m.Update(StatsMsg{Iteration: 5, MaxIter: 100, Crashes: 1, Hangs: 0, Elapsed: 2.5})
	if cmd == nil {
		t.Fatal("expected a follow-up command to keep listening for updates")
	}
	nm := next.(model)
	if nm.stats.Iteration != 5 || nm.stats.Crashes != 1 {
		t.Fatalf("stats not applied: %+v", nm.stats)
	}
}

func TestModelViewRendersCounts(t *testing.T) {
	m := model{stats: StatsMsg{Iteration: 3, MaxIter: 10, Crashes: 2, Hangs: 1, Elapsed: 1.0}}
	view := m.View()
	for _, want := range []string{"3/10", "2", "1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view %q missing %q", view, want)
		}
	}
}

func TestModelQuitsOnDoneMsg(t *testing.T) {
	m := model{}
	_, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("expected tea.Quit message, got %#v", msg)
	}
}

func TestModelQuitsOnCtrlC(t *testing.T) {
	m := model{}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected ctrl+c to produce a quit command")
	}
}
