// Package notify carries the payload-less change signals and the sleep/wake
// events that drive the scheduler.
package notify

import (
	"sync"

	"github.com/bryanchriswhite/spacebar/internal/logger"
)

// Bus delivers named change signals
type Bus interface {
	// Subscribe returns a channel receiving every published name in names
	// (every name when names is empty) and a function that ends the
	// subscription and closes the channel
	Subscribe(names []string) (<-chan string, func())
}

// Hub is an in-memory Bus. Real transports (D-Bus, HTTP) publish into it.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscription]struct{}
}

type subscription struct {
	ch    chan string
	names map[string]struct{}
	once  sync.Once
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

// Subscribe adds a listener for the given signal names
func (h *Hub) Subscribe(names []string) (<-chan string, func()) {
	sub := &subscription{
		ch:    make(chan string, 16),
		names: make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		sub.names[n] = struct{}{}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers a signal to every interested subscriber and returns how
// many received it. Full subscribers are skipped; a pending signal already
// guarantees a refresh.
func (h *Hub) Publish(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs {
		if len(sub.names) > 0 {
			if _, ok := sub.names[name]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- name:
			delivered++
		default:
		}
	}

	logger.WithComponent("notify").Debug().
		Str("signal", name).
		Int("delivered", delivered).
		Msg("Signal published")
	return delivered
}

// Subscribers returns the number of active subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
