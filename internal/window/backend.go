package window

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Backend defines the operations every window manager client supports
type Backend interface {
	// Name returns the backend name (e.g., "yabai", "aerospace")
	Name() string

	// Probe checks that the backend executable is reachable and answers queries
	Probe(ctx context.Context) error

	// FetchSnapshot queries spaces and windows and returns the merged, filtered state
	FetchSnapshot(ctx context.Context) (*Snapshot, error)

	// FocusSpace asks the window manager to switch to a space
	FocusSpace(ctx context.Context, id SpaceID) error

	// FocusWindow asks the window manager to focus a window
	FocusWindow(ctx context.Context, id WindowID) error
}

// Notifier is implemented by backends that announce state changes as
// payload-less signals on a notification bus
type Notifier interface {
	// Signals returns the signal names that mean "state changed"
	Signals() []string
}

// Provider wraps the selected backend so callers never depend on which one
// is active. Concurrent snapshot requests share a single fetch.
type Provider struct {
	backend  Backend
	notifier Notifier
	group    singleflight.Group
}

// NewProvider wraps a backend
func NewProvider(backend Backend) *Provider {
	p := &Provider{backend: backend}
	if n, ok := backend.(Notifier); ok {
		p.notifier = n
	}
	return p
}

// Name returns the wrapped backend's name
func (p *Provider) Name() string {
	return p.backend.Name()
}

// Notifier returns the push capability when the backend has one
func (p *Provider) Notifier() (Notifier, bool) {
	return p.notifier, p.notifier != nil
}

// FetchSnapshot returns the latest merged state
func (p *Provider) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	v, err, _ := p.group.Do("snapshot", func() (any, error) {
		return p.backend.FetchSnapshot(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// fetchFresh queries the backend outside the shared fetch, so the result
// never predates the call
func (p *Provider) fetchFresh(ctx context.Context) (*Snapshot, error) {
	return p.backend.FetchSnapshot(ctx)
}

// FocusSpace forwards to the backend
func (p *Provider) FocusSpace(ctx context.Context, id SpaceID) error {
	return p.backend.FocusSpace(ctx, id)
}

// FocusWindow forwards to the backend
func (p *Provider) FocusWindow(ctx context.Context, id WindowID) error {
	return p.backend.FocusWindow(ctx, id)
}

// fetchPlan is the per-backend part of a fetch cycle
type fetchPlan struct {
	backend   string
	spaces    func(ctx context.Context) ([]Space, error)
	windows   func(ctx context.Context) ([]Window, error)
	accessory AccessorySource
}

// run executes the space, window and accessory queries concurrently, waits
// for all of them and only then filters and merges. Any failure aborts the
// whole cycle. Queries are not cancelled when a sibling fails, so the error
// tells a partial failure from a total one.
func (f fetchPlan) run(ctx context.Context) (*Snapshot, error) {
	var (
		spaces    []Space
		windows   []Window
		accessory AccessorySet

		spacesErr, windowsErr, accessoryErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		if spaces, spacesErr = f.spaces(ctx); spacesErr != nil {
			spacesErr = fmt.Errorf("query spaces: %w", spacesErr)
		}
		return spacesErr
	})
	g.Go(func() error {
		if windows, windowsErr = f.windows(ctx); windowsErr != nil {
			windowsErr = fmt.Errorf("query windows: %w", windowsErr)
		}
		return windowsErr
	})
	g.Go(func() error {
		src := f.accessory
		if src == nil {
			src = NoAccessories{}
		}
		if accessory, accessoryErr = src.Accessories(ctx); accessoryErr != nil {
			accessoryErr = fmt.Errorf("query running applications: %w", accessoryErr)
		}
		return accessoryErr
	})

	if err := g.Wait(); err != nil {
		cause := errors.Join(spacesErr, windowsErr, accessoryErr)
		if spacesErr != nil && windowsErr != nil {
			return nil, fmt.Errorf("%s fetch: %w", f.backend, cause)
		}
		return nil, fmt.Errorf("%s fetch: %w: %w", f.backend, ErrPartialFetch, cause)
	}

	merged := Merge(spaces, Filter(windows, accessory))
	return NewSnapshot(merged, time.Now()), nil
}
