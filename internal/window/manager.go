package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/bryanchriswhite/spacebar/internal/notify"
	"github.com/jonboulle/clockwork"
)

// DefaultPollInterval is the fallback timer period
const DefaultPollInterval = 500 * time.Millisecond

// State is the scheduler state
type State int

const (
	// Idle means no timer is armed and nothing is being fetched
	Idle State = iota
	// Polling means the fallback timer is armed
	Polling
	// Fetching means a fetch is in flight
	Fetching
	// Suspended means the system is asleep
	Suspended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Fetching:
		return "fetching"
	case Suspended:
		return "suspended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ManagerOptions configures a Manager. Zero values pick defaults.
type ManagerOptions struct {
	Clock             clockwork.Clock
	PollInterval      time.Duration
	FocusRecheckDelay time.Duration
	// Bus delivers push signals for providers that have a Notifier
	Bus notify.Bus
	// Power delivers sleep/wake events
	Power notify.PowerSource
}

// Manager owns the authoritative snapshot and decides when to refresh it
type Manager struct {
	clock    clockwork.Clock
	interval time.Duration
	bus      notify.Bus
	power    notify.PowerSource
	focus    *FocusController

	mu        sync.RWMutex
	provider  *Provider
	state     State
	current   *Snapshot
	lastErr   error
	failures  int
	callbacks map[int]func(*Snapshot)
	nextSub   int
	listeners []chan *Snapshot

	reconfigure chan struct{}
	trigger     chan struct{}
}

type fetchResult struct {
	provider *Provider
	snapshot *Snapshot
	err      error
}

// NewManager creates a scheduler for the given provider. A nil provider
// leaves the scheduler idle until SetProvider supplies one.
func NewManager(provider *Provider, opts ManagerOptions) *Manager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	m := &Manager{
		clock:       opts.Clock,
		interval:    opts.PollInterval,
		bus:         opts.Bus,
		power:       opts.Power,
		provider:    provider,
		callbacks:   make(map[int]func(*Snapshot)),
		reconfigure: make(chan struct{}, 1),
		trigger:     make(chan struct{}, 1),
	}
	m.focus = NewFocusController(m.Provider, opts.Clock, opts.FocusRecheckDelay)
	return m
}

// String names the service for the supervisor
func (m *Manager) String() string {
	return "scheduler"
}

// Serve runs the scheduler as a supervised service
func (m *Manager) Serve(ctx context.Context) error {
	return m.Run(ctx)
}

// Run drives the scheduler until ctx is done. All state transitions happen
// on this goroutine; fetches run on a worker and report back here.
func (m *Manager) Run(ctx context.Context) error {
	log := logger.WithComponent("scheduler")

	var (
		provider    *Provider
		ticker      clockwork.Ticker
		tick        <-chan time.Time
		push        <-chan string
		unsubscribe func()
		powerEvents <-chan notify.PowerEvent

		fetching  bool
		suspended bool
		pending   bool
	)
	results := make(chan fetchResult, 1)

	if m.power != nil {
		powerEvents = m.power.Events()
	}

	disarm := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if unsubscribe != nil {
			unsubscribe()
			unsubscribe, push = nil, nil
		}
	}

	arm := func() {
		disarm()
		if provider == nil || suspended {
			return
		}
		ticker = m.clock.NewTicker(m.interval)
		tick = ticker.Chan()
		if n, ok := provider.Notifier(); ok && m.bus != nil {
			push, unsubscribe = m.bus.Subscribe(n.Signals())
		}
	}

	settle := func() {
		switch {
		case suspended:
			m.setState(Suspended)
		case fetching:
			m.setState(Fetching)
		case provider == nil:
			m.setState(Idle)
		default:
			m.setState(Polling)
		}
	}

	start := func(reason string) {
		if provider == nil || suspended || fetching {
			return
		}
		fetching = true
		settle()
		log.Debug().Str("reason", reason).Str("backend", provider.Name()).Msg("Fetching snapshot")

		p := provider
		go func() {
			snap, err := p.FetchSnapshot(ctx)
			results <- fetchResult{provider: p, snapshot: snap, err: err}
		}()
	}

	provider = m.Provider()
	if provider == nil {
		log.Warn().Msg("No window manager backend available, scheduler idle")
	}
	arm()
	settle()
	start("startup")

	defer func() {
		disarm()
		m.setState(Idle)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-tick:
			start("timer")

		case name, ok := <-push:
			if !ok {
				push = nil
				continue
			}
			log.Debug().Str("signal", name).Msg("Push signal received")
			start("signal")

		case <-m.trigger:
			start("refresh")

		case <-m.reconfigure:
			provider = m.Provider()
			if provider == nil {
				log.Warn().Msg("Provider removed, scheduler idle")
			} else {
				log.Info().Str("backend", provider.Name()).Msg("Provider changed")
			}
			arm()
			if fetching {
				pending = true
			}
			settle()
			start("reconfigure")

		case ev := <-powerEvents:
			switch ev {
			case notify.Sleep:
				if suspended {
					continue
				}
				log.Info().Msg("System going to sleep, suspending updates")
				suspended = true
				pending = false
				disarm()
				settle()
			case notify.Wake:
				if !suspended {
					continue
				}
				log.Info().Msg("System woke up, resuming updates")
				suspended = false
				arm()
				if fetching {
					pending = true
				}
				settle()
				start("wake")
			}

		case r := <-results:
			fetching = false
			if r.provider == provider {
				m.record(r)
			} else {
				log.Debug().Msg("Discarding result from replaced provider")
			}
			settle()
			if pending {
				pending = false
				start("deferred")
			}
		}
	}
}

// record applies a fetch result: success replaces the snapshot, failure
// keeps the previous one
func (m *Manager) record(r fetchResult) {
	log := logger.WithComponent("scheduler")

	if r.err != nil {
		m.mu.Lock()
		m.lastErr = r.err
		m.failures++
		failures := m.failures
		m.mu.Unlock()

		log.Warn().Err(r.err).Int("failures", failures).Msg("Fetch failed, keeping previous snapshot")
		return
	}

	m.mu.Lock()
	m.current = r.snapshot
	m.lastErr = nil
	m.mu.Unlock()

	m.publish(r.snapshot)
}

// publish hands a snapshot to every subscriber
func (m *Manager) publish(snap *Snapshot) {
	m.mu.RLock()
	callbacks := make([]func(*Snapshot), 0, len(m.callbacks))
	for _, fn := range m.callbacks {
		callbacks = append(callbacks, fn)
	}
	for _, ch := range m.listeners {
		select {
		case ch <- snap:
		default:
			// Skip if channel is full
		}
	}
	m.mu.RUnlock()

	for _, fn := range callbacks {
		fn(snap)
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()

	if prev != s {
		logger.WithComponent("scheduler").Debug().
			Stringer("from", prev).
			Stringer("to", s).
			Msg("State transition")
	}
}

// State returns the current scheduler state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the last successfully fetched snapshot, nil before the
// first success
func (m *Manager) Current() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LastError returns the error of the most recent fetch, nil after a success
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Failures returns the number of failed fetches so far
func (m *Manager) Failures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failures
}

// Provider returns the active provider, nil when none is available
func (m *Manager) Provider() *Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.provider
}

// SetProvider swaps the active provider. The running scheduler re-arms its
// timer and subscriptions for the new one and fetches right away.
func (m *Manager) SetProvider(p *Provider) {
	m.mu.Lock()
	m.provider = p
	m.mu.Unlock()

	select {
	case m.reconfigure <- struct{}{}:
	default:
	}
}

// Refresh asks for a fetch outside the timer. It is ignored while a fetch
// is in flight or the system is asleep.
func (m *Manager) Refresh() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Subscribe registers a callback invoked with every published snapshot.
// Callbacks run on the scheduler goroutine and must not block.
func (m *Manager) Subscribe(fn func(*Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.callbacks[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.callbacks, id)
			m.mu.Unlock()
		})
	}
}

// SubscribeChan adds a listener channel for published snapshots
func (m *Manager) SubscribeChan() chan *Snapshot {
	ch := make(chan *Snapshot, 10)
	m.mu.Lock()
	m.listeners = append(m.listeners, ch)
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it
func (m *Manager) Unsubscribe(ch chan *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, listener := range m.listeners {
		if listener == ch {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// Focus returns the focus controller bound to the active provider
func (m *Manager) Focus() *FocusController {
	return m.focus
}

// RequestFocusSpace focuses a space and, when asked, makes sure a window in
// it ends up focused
func (m *Manager) RequestFocusSpace(ctx context.Context, id SpaceID, needWindowFocus bool) *FollowUp {
	return m.focus.FocusSpace(ctx, id, needWindowFocus)
}

// RequestFocusWindow focuses a window
func (m *Manager) RequestFocusWindow(ctx context.Context, id WindowID) {
	m.focus.FocusWindow(ctx, id)
}
