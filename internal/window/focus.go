package window

import (
	"context"
	"sync"
	"time"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/jonboulle/clockwork"
)

// DefaultFocusRecheckDelay is how long to wait after focusing a space before
// checking that a window inside it got focus
const DefaultFocusRecheckDelay = 100 * time.Millisecond

// FocusController sends focus commands to the active provider. Commands are
// best effort: failures are logged, never retried.
type FocusController struct {
	provider func() *Provider
	clock    clockwork.Clock
	delay    time.Duration

	mu      sync.Mutex
	pending *FollowUp
}

// FollowUp is a scheduled focus re-check
type FollowUp struct {
	timer clockwork.Timer
	done  chan struct{}
	once  sync.Once
	ran   bool
}

// Cancel stops the re-check if it has not run yet. A cancelled follow-up
// is done without having run.
func (f *FollowUp) Cancel() bool {
	if f == nil || f.timer == nil {
		return false
	}
	if !f.timer.Stop() {
		return false
	}
	f.finish(false)
	return true
}

// Done is closed once the re-check has run or was cancelled
func (f *FollowUp) Done() <-chan struct{} {
	return f.done
}

// Ran waits for Done and reports whether the re-check ran
func (f *FollowUp) Ran() bool {
	<-f.done
	return f.ran
}

func (f *FollowUp) finish(ran bool) {
	f.once.Do(func() {
		f.ran = ran
		close(f.done)
	})
}

// NewFocusController creates a controller for whatever provider the given
// function returns at call time
func NewFocusController(provider func() *Provider, clock clockwork.Clock, delay time.Duration) *FocusController {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultFocusRecheckDelay
	}
	return &FocusController{
		provider: provider,
		clock:    clock,
		delay:    delay,
	}
}

// FocusSpace switches to a space. With needWindowFocus it schedules a
// re-check that focuses the space's first window when the window manager
// left the space without a focused window. A newer call cancels an older
// pending re-check. The returned FollowUp is nil when nothing was scheduled.
func (c *FocusController) FocusSpace(ctx context.Context, id SpaceID, needWindowFocus bool) *FollowUp {
	log := logger.WithComponent("focus")

	p := c.provider()
	if p == nil {
		log.Warn().Str("space", string(id)).Msg("No provider, dropping focus-space request")
		return nil
	}

	if err := p.FocusSpace(ctx, id); err != nil {
		log.Warn().Err(err).Str("space", string(id)).Msg("Focus space command failed")
		return nil
	}

	if !needWindowFocus {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.pending.Cancel()
	}

	f := &FollowUp{done: make(chan struct{})}
	f.timer = c.clock.AfterFunc(c.delay, func() {
		defer f.finish(true)
		c.recheck(p, id)
	})
	c.pending = f
	return f
}

// recheck focuses the first window of the space when none is focused
func (c *FocusController) recheck(p *Provider, id SpaceID) {
	log := logger.WithComponent("focus")
	ctx := context.Background()

	snap, err := p.fetchFresh(ctx)
	if err != nil {
		log.Warn().Err(err).Str("space", string(id)).Msg("Focus re-check fetch failed")
		return
	}

	space, ok := snap.Space(id)
	if !ok {
		log.Debug().Str("space", string(id)).Msg("Focus re-check: space no longer exists")
		return
	}
	if _, focused := space.FocusedWindow(); focused {
		return
	}

	first, ok := space.FirstWindow()
	if !ok {
		return
	}

	log.Debug().
		Str("space", string(id)).
		Int("window", int(first.ID)).
		Msg("Space has no focused window, focusing first window")
	if err := p.FocusWindow(ctx, first.ID); err != nil {
		log.Warn().Err(err).Int("window", int(first.ID)).Msg("Focus window command failed")
	}
}

// FocusWindow focuses a window, fire-and-forget
func (c *FocusController) FocusWindow(ctx context.Context, id WindowID) {
	log := logger.WithComponent("focus")

	p := c.provider()
	if p == nil {
		log.Warn().Int("window", int(id)).Msg("No provider, dropping focus-window request")
		return
	}
	if err := p.FocusWindow(ctx, id); err != nil {
		log.Warn().Err(err).Int("window", int(id)).Msg("Focus window command failed")
	}
}
