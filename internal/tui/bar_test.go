package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bryanchriswhite/spacebar/internal/window"
	tea "github.com/charmbracelet/bubbletea"
)

type recordingFocuser struct {
	mu     sync.Mutex
	spaces []window.SpaceID
}

func (f *recordingFocuser) RequestFocusSpace(_ context.Context, id window.SpaceID, need bool) *window.FollowUp {
	f.mu.Lock()
	defer f.mu.Unlock()
	if need {
		f.spaces = append(f.spaces, id)
	}
	return nil
}

func testSnapshot() *window.Snapshot {
	return window.NewSnapshot([]window.Space{
		{ID: "1", Windows: []window.Window{{ID: 1, SpaceID: "1", App: "Mail", Title: "Inbox"}}},
		{ID: "2", IsActive: true, Windows: []window.Window{
			{ID: 2, SpaceID: "2", App: "Safari", Title: "News"},
			{ID: 3, SpaceID: "2", App: "Terminal", Title: "zsh", IsFocused: true},
		}},
		{ID: "3", Windows: []window.Window{}},
	}, time.Time{})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ViewWaiting(t *testing.T) {
	m := New(nil, nil, nil)
	if !strings.Contains(m.View(), "waiting") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestModel_SnapshotMsg(t *testing.T) {
	ch := make(chan *window.Snapshot, 1)
	m := New(nil, ch, nil)

	updated, cmd := m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	bar := updated.(Model)

	if cmd == nil {
		t.Error("expected the model to keep listening for snapshots")
	}
	if bar.cursor != 1 {
		t.Errorf("cursor = %d, want active space 1", bar.cursor)
	}

	view := bar.View()
	for _, want := range []string{"1 Mail", "2 Terminal +1", "3", "Terminal: zsh"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_WaitForSnapshot(t *testing.T) {
	ch := make(chan *window.Snapshot, 1)
	m := New(nil, ch, nil)

	snap := testSnapshot()
	ch <- snap
	msg := m.Init()()
	if got, ok := msg.(SnapshotMsg); !ok || got.Snapshot != snap {
		t.Errorf("Init() produced %T, want SnapshotMsg", msg)
	}

	close(ch)
	if _, ok := m.Init()().(closedMsg); !ok {
		t.Error("expected closedMsg after the feed closed")
	}
}

func TestModel_NavigateAndFocus(t *testing.T) {
	f := &recordingFocuser{}
	var model tea.Model = New(f, nil, testSnapshot())

	model, _ = model.Update(key("right"))
	model, _ = model.Update(key("right"))
	if c := model.(Model).cursor; c != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", c)
	}

	model, cmd := model.Update(key("enter"))
	if cmd == nil {
		t.Fatal("expected a focus command")
	}
	msg := cmd()
	model, _ = model.Update(msg)

	model, _ = model.Update(key("left"))
	model, _ = model.Update(key("left"))
	model, _ = model.Update(key("left"))
	if c := model.(Model).cursor; c != 0 {
		t.Errorf("cursor = %d, want 0 (clamped)", c)
	}

	model, cmd = model.Update(key("2"))
	if cmd == nil {
		t.Fatal("expected a focus command for the number key")
	}
	cmd()

	if _, cmd = model.Update(key("9")); cmd != nil {
		t.Error("number key past the last space should do nothing")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.spaces) != 2 || f.spaces[0] != "3" || f.spaces[1] != "2" {
		t.Errorf("focused spaces = %v, want [3 2]", f.spaces)
	}
	if !strings.Contains(model.View(), "focused space 3") {
		t.Errorf("status missing from view:\n%s", model.View())
	}
}

func TestModel_Quit(t *testing.T) {
	m := New(nil, nil, testSnapshot())
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
