package window

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"golang.org/x/sync/errgroup"
)

const (
	aerospaceWorkspaceFormat = "%{workspace} %{workspace-is-focused} %{monitor-id}"
	aerospaceWindowFormat    = "%{window-id} %{app-name} %{window-title} %{workspace} %{app-pid}"
)

// AerospaceBackend implements the Backend interface using the AeroSpace CLI.
// AeroSpace has no change notifications, so it relies on the fallback timer.
type AerospaceBackend struct {
	path      string
	runner    Runner
	accessory AccessorySource
}

type aerospaceWorkspace struct {
	Workspace string `json:"workspace"`
	IsFocused bool   `json:"workspace-is-focused"`
	MonitorID int    `json:"monitor-id"`
}

type aerospaceWindow struct {
	WindowID  int    `json:"window-id"`
	AppName   string `json:"app-name"`
	Title     string `json:"window-title"`
	Workspace string `json:"workspace"`
	AppPID    int    `json:"app-pid"`
}

// NewAerospaceBackend creates an AeroSpace backend. path defaults to "aerospace".
func NewAerospaceBackend(path string, runner Runner, accessory AccessorySource) *AerospaceBackend {
	if path == "" {
		path = "aerospace"
	}
	return &AerospaceBackend{
		path:      path,
		runner:    runner,
		accessory: accessory,
	}
}

// Name returns the backend name
func (b *AerospaceBackend) Name() string {
	return "aerospace"
}

// Probe checks that the AeroSpace server answers
func (b *AerospaceBackend) Probe(ctx context.Context) error {
	if _, err := b.runner.Run(ctx, b.path, "list-workspaces", "--focused"); err != nil {
		return fmt.Errorf("aerospace not reachable: %w", err)
	}
	return nil
}

// FetchSnapshot queries workspaces and windows concurrently and merges them
func (b *AerospaceBackend) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := fetchPlan{
		backend:   b.Name(),
		spaces:    b.queryWorkspaces,
		windows:   b.queryWindows,
		accessory: b.accessory,
	}.run(ctx)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("aerospace").Debug().
		Int("spaces", len(snap.Spaces)).
		Int("windows", snap.WindowCount()).
		Msg("Fetched snapshot")
	return snap, nil
}

func (b *AerospaceBackend) queryWorkspaces(ctx context.Context) ([]Space, error) {
	out, err := b.runner.Run(ctx, b.path, "list-workspaces", "--all", "--json", "--format", aerospaceWorkspaceFormat)
	if err != nil {
		return nil, err
	}

	var raw []aerospaceWorkspace
	if err := decodeJSON(out, &raw, "aerospace workspaces"); err != nil {
		return nil, err
	}

	spaces := make([]Space, 0, len(raw))
	for _, ws := range raw {
		spaces = append(spaces, Space{
			ID:           SpaceID(ws.Workspace),
			DisplayIndex: ws.MonitorID,
			IsActive:     ws.IsFocused,
		})
	}
	return spaces, nil
}

// queryWindows lists all windows and the focused one. AeroSpace does not
// report focus in the full listing, so both queries run side by side.
func (b *AerospaceBackend) queryWindows(ctx context.Context) ([]Window, error) {
	var all, focused []aerospaceWindow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := b.runner.Run(gctx, b.path, "list-windows", "--all", "--json", "--format", aerospaceWindowFormat)
		if err != nil {
			return err
		}
		return decodeJSON(out, &all, "aerospace windows")
	})
	g.Go(func() error {
		out, err := b.runner.Run(gctx, b.path, "list-windows", "--focused", "--json")
		if err != nil {
			return err
		}
		return decodeJSON(out, &focused, "aerospace focused window")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	focusedID := -1
	if len(focused) > 0 {
		focusedID = focused[0].WindowID
	}

	// AeroSpace has no stack index; the listing order within a workspace is
	// the tiling order, so use it.
	positions := make(map[string]int)
	windows := make([]Window, 0, len(all))
	for _, w := range all {
		pos := positions[w.Workspace]
		positions[w.Workspace] = pos + 1

		windows = append(windows, Window{
			ID:         WindowID(w.WindowID),
			SpaceID:    SpaceID(w.Workspace),
			StackIndex: pos,
			Title:      w.Title,
			App:        w.AppName,
			PID:        w.AppPID,
			IsFocused:  w.WindowID == focusedID,
			Opacity:    1,
		})
	}
	return windows, nil
}

// FocusSpace runs `aerospace workspace <name>`
func (b *AerospaceBackend) FocusSpace(ctx context.Context, id SpaceID) error {
	if id == "" {
		return fmt.Errorf("empty aerospace workspace name")
	}
	_, err := b.runner.Run(ctx, b.path, "workspace", string(id))
	return err
}

// FocusWindow runs `aerospace focus --window-id <id>`
func (b *AerospaceBackend) FocusWindow(ctx context.Context, id WindowID) error {
	_, err := b.runner.Run(ctx, b.path, "focus", "--window-id", strconv.Itoa(int(id)))
	return err
}
