package window

import (
	"strings"
	"time"
)

// SpaceID identifies a space. yabai spaces use their mission-control index,
// AeroSpace workspaces use their name.
type SpaceID string

// WindowID identifies a window as reported by the window manager.
type WindowID int

// Window represents one application window known to the window manager
type Window struct {
	ID         WindowID `json:"id" yaml:"id"`
	SpaceID    SpaceID  `json:"space_id" yaml:"space_id"`
	StackIndex int      `json:"stack_index" yaml:"stack_index"`
	Title      string   `json:"title" yaml:"title"`
	App        string   `json:"app,omitempty" yaml:"app,omitempty"`
	PID        int      `json:"pid,omitempty" yaml:"pid,omitempty"`
	IsFloating bool     `json:"is_floating" yaml:"is_floating"`
	IsHidden   bool     `json:"is_hidden" yaml:"is_hidden"`
	IsSticky   bool     `json:"is_sticky" yaml:"is_sticky"`
	IsFocused  bool     `json:"is_focused" yaml:"is_focused"`
	Opacity    float64  `json:"opacity" yaml:"opacity"`
}

// HasBlankTitle reports whether the title is empty or whitespace only
func (w Window) HasBlankTitle() bool {
	return strings.TrimSpace(w.Title) == ""
}

// Space represents one workspace with the windows attached to it
type Space struct {
	ID           SpaceID  `json:"id" yaml:"id"`
	DisplayIndex int      `json:"display_index" yaml:"display_index"`
	IsActive     bool     `json:"is_active" yaml:"is_active"`
	Windows      []Window `json:"windows" yaml:"windows"`
}

// FocusedWindow returns the window marked as focused, if any
func (s Space) FocusedWindow() (Window, bool) {
	for _, w := range s.Windows {
		if w.IsFocused {
			return w, true
		}
	}
	return Window{}, false
}

// FirstWindow returns the first window in stack order
func (s Space) FirstWindow() (Window, bool) {
	if len(s.Windows) == 0 {
		return Window{}, false
	}
	return s.Windows[0], true
}

// Snapshot is the merged state produced by one fetch cycle.
// It is never modified after construction; a newer fetch replaces it wholesale.
type Snapshot struct {
	Spaces    []Space   `json:"spaces" yaml:"spaces"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// NewSnapshot builds a snapshot from already merged spaces
func NewSnapshot(spaces []Space, fetchedAt time.Time) *Snapshot {
	if spaces == nil {
		spaces = []Space{}
	}
	return &Snapshot{Spaces: spaces, FetchedAt: fetchedAt}
}

// Space looks up a space by ID
func (s *Snapshot) Space(id SpaceID) (Space, bool) {
	if s == nil {
		return Space{}, false
	}
	for _, sp := range s.Spaces {
		if sp.ID == id {
			return sp, true
		}
	}
	return Space{}, false
}

// ActiveSpace returns the first space flagged active
func (s *Snapshot) ActiveSpace() (Space, bool) {
	if s == nil {
		return Space{}, false
	}
	for _, sp := range s.Spaces {
		if sp.IsActive {
			return sp, true
		}
	}
	return Space{}, false
}

// FocusedWindow returns the focused window across all spaces
func (s *Snapshot) FocusedWindow() (Window, bool) {
	if s == nil {
		return Window{}, false
	}
	for _, sp := range s.Spaces {
		if w, ok := sp.FocusedWindow(); ok {
			return w, true
		}
	}
	return Window{}, false
}

// WindowCount returns the number of windows across all spaces
func (s *Snapshot) WindowCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, sp := range s.Spaces {
		n += len(sp.Windows)
	}
	return n
}

// Clone returns a deep copy that callers may modify freely
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	spaces := make([]Space, len(s.Spaces))
	for i, sp := range s.Spaces {
		sp.Windows = append([]Window{}, sp.Windows...)
		spaces[i] = sp
	}
	return &Snapshot{Spaces: spaces, FetchedAt: s.FetchedAt}
}
