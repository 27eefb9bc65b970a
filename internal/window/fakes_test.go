package window

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// fakeRunner answers commands from a table keyed by the full command line
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (r *fakeRunner) on(cmdline, output string) *fakeRunner {
	r.outputs[cmdline] = output
	return r
}

func (r *fakeRunner) fail(cmdline string, err error) *fakeRunner {
	r.errs[cmdline] = err
	return r
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := commandLine(name, args)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, line)

	if err, ok := r.errs[line]; ok {
		return nil, err
	}
	if out, ok := r.outputs[line]; ok {
		return []byte(out), nil
	}
	return nil, fmt.Errorf("%s: %w: unexpected command", line, ErrProcessSpawn)
}

func (r *fakeRunner) called(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// staticAccessories is an AccessorySource with a fixed answer
type staticAccessories struct {
	set AccessorySet
	err error
}

func (s staticAccessories) Accessories(context.Context) (AccessorySet, error) {
	return s.set, s.err
}

// fakeBackend records commands and serves snapshots from a function
type fakeBackend struct {
	name     string
	probeErr error

	mu          sync.Mutex
	fetch       func(ctx context.Context) (*Snapshot, error)
	fetches     int
	spaceFocus  []SpaceID
	windowFocus []WindowID
	focusErr    error
}

func (b *fakeBackend) Name() string {
	if b.name == "" {
		return "fake"
	}
	return b.name
}

func (b *fakeBackend) Probe(context.Context) error {
	return b.probeErr
}

func (b *fakeBackend) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	b.mu.Lock()
	b.fetches++
	fetch := b.fetch
	b.mu.Unlock()

	if fetch == nil {
		return NewSnapshot(nil, time.Time{}), nil
	}
	return fetch(ctx)
}

func (b *fakeBackend) FocusSpace(_ context.Context, id SpaceID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spaceFocus = append(b.spaceFocus, id)
	return b.focusErr
}

func (b *fakeBackend) FocusWindow(_ context.Context, id WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windowFocus = append(b.windowFocus, id)
	return b.focusErr
}

func (b *fakeBackend) setFetch(fn func(ctx context.Context) (*Snapshot, error)) {
	b.mu.Lock()
	b.fetch = fn
	b.mu.Unlock()
}

func (b *fakeBackend) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

func (b *fakeBackend) focused() ([]SpaceID, []WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SpaceID{}, b.spaceFocus...), append([]WindowID{}, b.windowFocus...)
}

// fakePushBackend is a fakeBackend with the push capability
type fakePushBackend struct {
	*fakeBackend
	signals []string
}

func (b *fakePushBackend) Signals() []string {
	return b.signals
}
