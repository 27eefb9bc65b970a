package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/godbus/dbus/v5"
)

// D-Bus names used by the signal bridge. A yabai signal action like
//
//	dbus-send --session --type=signal /io/github/spacebar io.github.spacebar.Signals.space_changed
//
// ends up as a "space_changed" publication on the hub.
const (
	SignalPath      = "/io/github/spacebar"
	SignalInterface = "io.github.spacebar.Signals"

	logindInterface = "org.freedesktop.login1.Manager"
	logindPath      = "/org/freedesktop/login1"
	prepareForSleep = "PrepareForSleep"
)

// DBusSendAction is the yabai signal action format for the D-Bus bridge
const DBusSendAction = "dbus-send --session --type=signal " + SignalPath + " " + SignalInterface + ".%s"

// signalConn is the part of *dbus.Conn the bridges use
type signalConn interface {
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Close() error
}

// DBusBridge forwards session-bus signals into a Hub
type DBusBridge struct {
	conn signalConn
	hub  *Hub
}

// NewDBusBridge connects to the session bus
func NewDBusBridge(hub *Hub) (*DBusBridge, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DBusBridge{conn: conn, hub: hub}, nil
}

// String names the service for the supervisor
func (b *DBusBridge) String() string {
	return "dbus-signal-bridge"
}

// Serve forwards signals until ctx is done
func (b *DBusBridge) Serve(ctx context.Context) error {
	log := logger.WithComponent("dbus-bridge")

	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(SignalPath),
		dbus.WithMatchInterface(SignalInterface),
	}
	if err := b.conn.AddMatchSignal(match...); err != nil {
		return fmt.Errorf("failed to add signal match: %w", err)
	}
	defer b.conn.RemoveMatchSignal(match...)

	signals := make(chan *dbus.Signal, 16)
	b.conn.Signal(signals)
	defer b.conn.RemoveSignal(signals)

	log.Info().Str("interface", SignalInterface).Msg("Listening for change signals on D-Bus")

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("d-bus signal channel closed")
			}
			name := signalMember(sig.Name)
			if name == "" || !strings.HasPrefix(sig.Name, SignalInterface+".") {
				continue
			}
			b.hub.Publish(name)
		}
	}
}

// Close closes the bus connection
func (b *DBusBridge) Close() error {
	return b.conn.Close()
}

// signalMember extracts the member from "interface.Member"
func signalMember(full string) string {
	i := strings.LastIndex(full, ".")
	if i < 0 || i == len(full)-1 {
		return ""
	}
	return full[i+1:]
}

// LogindPower turns logind's PrepareForSleep signal into Sleep/Wake events
type LogindPower struct {
	conn signalConn
	hub  *PowerHub
}

// NewLogindPower connects to the system bus
func NewLogindPower(hub *PowerHub) (*LogindPower, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &LogindPower{conn: conn, hub: hub}, nil
}

// String names the service for the supervisor
func (l *LogindPower) String() string {
	return "logind-power"
}

// Serve forwards sleep/wake transitions until ctx is done
func (l *LogindPower) Serve(ctx context.Context) error {
	log := logger.WithComponent("logind")

	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindInterface),
		dbus.WithMatchMember(prepareForSleep),
	}
	if err := l.conn.AddMatchSignal(match...); err != nil {
		return fmt.Errorf("failed to add PrepareForSleep match: %w", err)
	}
	defer l.conn.RemoveMatchSignal(match...)

	signals := make(chan *dbus.Signal, 4)
	l.conn.Signal(signals)
	defer l.conn.RemoveSignal(signals)

	log.Info().Msg("Listening for sleep/wake on logind")

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("d-bus signal channel closed")
			}
			if ev, ok := powerEventFromSignal(sig); ok {
				l.hub.Publish(ev)
			}
		}
	}
}

// Close closes the bus connection
func (l *LogindPower) Close() error {
	return l.conn.Close()
}

// powerEventFromSignal maps PrepareForSleep(true) to Sleep and
// PrepareForSleep(false) to Wake
func powerEventFromSignal(sig *dbus.Signal) (PowerEvent, bool) {
	if sig == nil || sig.Name != logindInterface+"."+prepareForSleep || len(sig.Body) == 0 {
		return 0, false
	}
	start, ok := sig.Body[0].(bool)
	if !ok {
		return 0, false
	}
	if start {
		return Sleep, true
	}
	return Wake, true
}
