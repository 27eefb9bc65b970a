// Package tui renders the workspace bar in a terminal
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/spacebar/internal/window"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Focuser sends focus commands to the window manager
type Focuser interface {
	RequestFocusSpace(ctx context.Context, id window.SpaceID, needWindowFocus bool) *window.FollowUp
}

// SnapshotMsg carries a newly published snapshot
type SnapshotMsg struct {
	Snapshot *window.Snapshot
}

// closedMsg means the snapshot feed ended
type closedMsg struct{}

// focusedMsg reports a sent focus command
type focusedMsg struct {
	space window.SpaceID
}

type styles struct {
	active   lipgloss.Style
	inactive lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	status   lipgloss.Style
}

func defaultStyles() styles {
	mint := lipgloss.Color("#05ffa1")
	blue := lipgloss.Color("#01cdfe")
	muted := lipgloss.Color("#9ca3d8")

	return styles{
		active: lipgloss.NewStyle().
			Background(mint).
			Foreground(lipgloss.Color("#120924")).
			Bold(true).
			Padding(0, 1),
		inactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(lipgloss.Color("#f3f3ff")).
			Padding(0, 1),
		selected: lipgloss.NewStyle().Underline(true),
		muted:    lipgloss.NewStyle().Foreground(muted),
		status:   lipgloss.NewStyle().Foreground(blue),
	}
}

// Model is the bubbletea model of the bar
type Model struct {
	focuser  Focuser
	updates  <-chan *window.Snapshot
	snapshot *window.Snapshot
	cursor   int
	width    int
	status   string
	styles   styles
}

// New creates a bar fed by updates. The current snapshot, if any, is shown
// right away.
func New(focuser Focuser, updates <-chan *window.Snapshot, current *window.Snapshot) Model {
	m := Model{
		focuser:  focuser,
		updates:  updates,
		snapshot: current,
		styles:   defaultStyles(),
	}
	m.cursor = m.activeIndex()
	return m
}

// Init starts listening for snapshots
func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(ch <-chan *window.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func (m Model) activeIndex() int {
	if m.snapshot == nil {
		return 0
	}
	for i, sp := range m.snapshot.Spaces {
		if sp.IsActive {
			return i
		}
	}
	return 0
}

func (m Model) spaceCount() int {
	if m.snapshot == nil {
		return 0
	}
	return len(m.snapshot.Spaces)
}

// Update handles snapshots and key presses
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		m.cursor = m.activeIndex()
		return m, waitForSnapshot(m.updates)

	case closedMsg:
		m.status = "feed closed"
		return m, nil

	case focusedMsg:
		m.status = fmt.Sprintf("focused space %s", msg.space)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < m.spaceCount()-1 {
				m.cursor++
			}
		case "enter", " ":
			return m, m.focus(m.cursor)
		default:
			if k := msg.String(); len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
				i := int(k[0] - '1')
				if i < m.spaceCount() {
					m.cursor = i
					return m, m.focus(i)
				}
			}
		}
	}
	return m, nil
}

// focus returns the command focusing the space at index i
func (m Model) focus(i int) tea.Cmd {
	if m.focuser == nil || i >= m.spaceCount() {
		return nil
	}
	id := m.snapshot.Spaces[i].ID
	focuser := m.focuser
	return func() tea.Msg {
		focuser.RequestFocusSpace(context.Background(), id, true)
		return focusedMsg{space: id}
	}
}

// pill renders one space: its ID and the app of its focused or first window
func (m Model) pill(i int, sp window.Space) string {
	label := string(sp.ID)
	if w, ok := sp.FocusedWindow(); ok && w.App != "" {
		label += " " + w.App
	} else if w, ok := sp.FirstWindow(); ok && w.App != "" {
		label += " " + w.App
	}
	if n := len(sp.Windows); n > 1 {
		label += fmt.Sprintf(" +%d", n-1)
	}

	style := m.styles.inactive
	if sp.IsActive {
		style = m.styles.active
	}
	if i == m.cursor {
		style = style.Inherit(m.styles.selected)
	}
	return style.Render(label)
}

// View renders the bar
func (m Model) View() string {
	if m.snapshot == nil {
		return m.styles.muted.Render("waiting for window manager...") + "\n"
	}

	pills := make([]string, 0, 2*len(m.snapshot.Spaces))
	for i, sp := range m.snapshot.Spaces {
		if i > 0 {
			pills = append(pills, " ")
		}
		pills = append(pills, m.pill(i, sp))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, pills...)

	var b strings.Builder
	b.WriteString(bar)
	b.WriteString("\n")
	if w, ok := m.snapshot.FocusedWindow(); ok {
		b.WriteString(m.styles.status.Render(fmt.Sprintf("%s: %s", w.App, w.Title)))
		b.WriteString("\n")
	}
	help := "←/→ select · enter focus · 1-9 jump · q quit"
	if m.status != "" {
		help = m.status + " · " + help
	}
	b.WriteString(m.styles.muted.Render(help))
	b.WriteString("\n")
	return b.String()
}
