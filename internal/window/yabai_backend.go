package window

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/spacebar/internal/logger"
)

// yabaiSignals are the yabai events that change what the bar shows
var yabaiSignals = []string{
	"space_changed",
	"display_changed",
	"window_created",
	"window_destroyed",
	"window_moved",
	"window_resized",
	"window_focused",
	"window_minimized",
	"window_deminimized",
	"window_title_changed",
	"application_launched",
	"application_terminated",
	"application_front_switched",
	"application_visible",
	"application_hidden",
	"mission_control_exit",
}

// YabaiBackend implements the Backend interface using the yabai CLI.
// yabai can post a signal for every state change, so it is also a Notifier.
type YabaiBackend struct {
	path      string
	runner    Runner
	accessory AccessorySource
}

// yabaiSpace is the subset of `yabai -m query --spaces` we use
type yabaiSpace struct {
	Index     int  `json:"index"`
	Display   int  `json:"display"`
	HasFocus  bool `json:"has-focus"`
	IsVisible bool `json:"is-visible"`
}

// yabaiWindow is the subset of `yabai -m query --windows` we use
type yabaiWindow struct {
	ID          int     `json:"id"`
	PID         int     `json:"pid"`
	App         string  `json:"app"`
	Title       string  `json:"title"`
	Space       int     `json:"space"`
	StackIndex  int     `json:"stack-index"`
	Opacity     float64 `json:"opacity"`
	IsFloating  bool    `json:"is-floating"`
	IsHidden    bool    `json:"is-hidden"`
	IsMinimized bool    `json:"is-minimized"`
	IsSticky    bool    `json:"is-sticky"`
	HasFocus    bool    `json:"has-focus"`
}

// NewYabaiBackend creates a yabai backend. path defaults to "yabai".
func NewYabaiBackend(path string, runner Runner, accessory AccessorySource) *YabaiBackend {
	if path == "" {
		path = "yabai"
	}
	return &YabaiBackend{
		path:      path,
		runner:    runner,
		accessory: accessory,
	}
}

// Name returns the backend name
func (b *YabaiBackend) Name() string {
	return "yabai"
}

// Probe runs a cheap query to check yabai is installed and running
func (b *YabaiBackend) Probe(ctx context.Context) error {
	if _, err := b.runner.Run(ctx, b.path, "-m", "query", "--spaces", "--space"); err != nil {
		return fmt.Errorf("yabai not reachable: %w", err)
	}
	return nil
}

// Signals returns the yabai events that trigger a refresh
func (b *YabaiBackend) Signals() []string {
	out := make([]string, len(yabaiSignals))
	copy(out, yabaiSignals)
	return out
}

// SignalCommands renders the `yabai -m signal --add` invocations that make
// yabai announce every refresh signal. actionFormat receives the event name
// through a single %s verb.
func (b *YabaiBackend) SignalCommands(actionFormat string) [][]string {
	cmds := make([][]string, 0, len(yabaiSignals))
	for _, event := range yabaiSignals {
		cmds = append(cmds, []string{
			b.path, "-m", "signal", "--add",
			"event=" + event,
			"label=spacebar_" + event,
			"action=" + fmt.Sprintf(actionFormat, event),
		})
	}
	return cmds
}

// FetchSnapshot queries spaces and windows concurrently and merges them
func (b *YabaiBackend) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := fetchPlan{
		backend:   b.Name(),
		spaces:    b.querySpaces,
		windows:   b.queryWindows,
		accessory: b.accessory,
	}.run(ctx)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("yabai").Debug().
		Int("spaces", len(snap.Spaces)).
		Int("windows", snap.WindowCount()).
		Msg("Fetched snapshot")
	return snap, nil
}

func (b *YabaiBackend) querySpaces(ctx context.Context) ([]Space, error) {
	out, err := b.runner.Run(ctx, b.path, "-m", "query", "--spaces")
	if err != nil {
		return nil, err
	}

	var raw []yabaiSpace
	if err := decodeJSON(out, &raw, "yabai spaces"); err != nil {
		return nil, err
	}

	spaces := make([]Space, 0, len(raw))
	for _, s := range raw {
		spaces = append(spaces, Space{
			ID:           yabaiSpaceID(s.Index),
			DisplayIndex: s.Display,
			IsActive:     s.HasFocus,
		})
	}
	return spaces, nil
}

func (b *YabaiBackend) queryWindows(ctx context.Context) ([]Window, error) {
	out, err := b.runner.Run(ctx, b.path, "-m", "query", "--windows")
	if err != nil {
		return nil, err
	}

	var raw []yabaiWindow
	if err := decodeJSON(out, &raw, "yabai windows"); err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(raw))
	for _, w := range raw {
		windows = append(windows, Window{
			ID:         WindowID(w.ID),
			SpaceID:    yabaiSpaceID(w.Space),
			StackIndex: w.StackIndex,
			Title:      w.Title,
			App:        w.App,
			PID:        w.PID,
			IsFloating: w.IsFloating,
			IsHidden:   w.IsHidden || w.IsMinimized,
			IsSticky:   w.IsSticky,
			IsFocused:  w.HasFocus,
			Opacity:    w.Opacity,
		})
	}
	return windows, nil
}

// FocusSpace runs `yabai -m space --focus <index>`
func (b *YabaiBackend) FocusSpace(ctx context.Context, id SpaceID) error {
	if _, err := strconv.Atoi(string(id)); err != nil {
		return fmt.Errorf("invalid yabai space index %q", id)
	}
	_, err := b.runner.Run(ctx, b.path, "-m", "space", "--focus", string(id))
	return err
}

// FocusWindow runs `yabai -m window --focus <id>`
func (b *YabaiBackend) FocusWindow(ctx context.Context, id WindowID) error {
	_, err := b.runner.Run(ctx, b.path, "-m", "window", "--focus", strconv.Itoa(int(id)))
	return err
}

func yabaiSpaceID(index int) SpaceID {
	return SpaceID(strconv.Itoa(index))
}
