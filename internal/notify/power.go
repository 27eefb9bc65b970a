package notify

import (
	"fmt"

	"github.com/bryanchriswhite/spacebar/internal/logger"
)

// PowerEvent is a system sleep/wake transition
type PowerEvent int

const (
	// Sleep is sent when the system is about to sleep
	Sleep PowerEvent = iota + 1
	// Wake is sent after the system woke up
	Wake
)

func (e PowerEvent) String() string {
	switch e {
	case Sleep:
		return "sleep"
	case Wake:
		return "wake"
	}
	return fmt.Sprintf("PowerEvent(%d)", int(e))
}

// ParsePowerEvent parses "sleep" or "wake"
func ParsePowerEvent(s string) (PowerEvent, error) {
	switch s {
	case "sleep":
		return Sleep, nil
	case "wake":
		return Wake, nil
	}
	return 0, fmt.Errorf("unknown power event %q (use sleep or wake)", s)
}

// PowerSource delivers sleep/wake events to a single consumer
type PowerSource interface {
	Events() <-chan PowerEvent
}

// PowerHub is an in-memory PowerSource fed by the logind bridge, the HTTP
// API or tests
type PowerHub struct {
	ch chan PowerEvent
}

// NewPowerHub creates a power hub
func NewPowerHub() *PowerHub {
	return &PowerHub{ch: make(chan PowerEvent, 8)}
}

// Events returns the event channel
func (p *PowerHub) Events() <-chan PowerEvent {
	return p.ch
}

// Publish queues an event; it is dropped when the consumer is far behind
func (p *PowerHub) Publish(ev PowerEvent) bool {
	select {
	case p.ch <- ev:
		logger.WithComponent("power").Debug().Stringer("event", ev).Msg("Power event published")
		return true
	default:
		logger.WithComponent("power").Warn().Stringer("event", ev).Msg("Power event dropped, consumer not keeping up")
		return false
	}
}

// Sleep publishes a Sleep event
func (p *PowerHub) Sleep() bool {
	return p.Publish(Sleep)
}

// Wake publishes a Wake event
func (p *PowerHub) Wake() bool {
	return p.Publish(Wake)
}
