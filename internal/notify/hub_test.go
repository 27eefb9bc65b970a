package notify

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestHub_PublishFiltersByName(t *testing.T) {
	h := NewHub()

	spaces, cancelSpaces := h.Subscribe([]string{"space_changed"})
	defer cancelSpaces()
	all, cancelAll := h.Subscribe(nil)
	defer cancelAll()

	if n := h.Publish("window_created"); n != 1 {
		t.Errorf("window_created delivered to %d, want 1", n)
	}
	if n := h.Publish("space_changed"); n != 2 {
		t.Errorf("space_changed delivered to %d, want 2", n)
	}

	if got := <-all; got != "window_created" {
		t.Errorf("catch-all got %q first, want window_created", got)
	}
	if got := <-all; got != "space_changed" {
		t.Errorf("catch-all got %q second, want space_changed", got)
	}
	if got := <-spaces; got != "space_changed" {
		t.Errorf("filtered subscriber got %q", got)
	}
	select {
	case got := <-spaces:
		t.Errorf("filtered subscriber got extra signal %q", got)
	default:
	}
}

func TestHub_CancelClosesOnce(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(nil)

	if h.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", h.Subscribers())
	}

	cancel()
	cancel()

	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after cancel, want 0", h.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	if n := h.Publish("space_changed"); n != 0 {
		t.Errorf("delivered to %d cancelled subscribers", n)
	}
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe(nil)
	defer cancel()

	delivered := 0
	for i := 0; i < 100; i++ {
		delivered += h.Publish("window_moved")
	}
	if delivered == 0 || delivered >= 100 {
		t.Errorf("delivered %d of 100 to an idle subscriber, want buffer-sized", delivered)
	}
}

func TestPowerHub(t *testing.T) {
	p := NewPowerHub()

	if !p.Sleep() || !p.Wake() {
		t.Fatal("expected events to be queued")
	}
	if ev := <-p.Events(); ev != Sleep {
		t.Errorf("first event = %v, want sleep", ev)
	}
	if ev := <-p.Events(); ev != Wake {
		t.Errorf("second event = %v, want wake", ev)
	}
}

func TestParsePowerEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    PowerEvent
		wantErr bool
	}{
		{in: "sleep", want: Sleep},
		{in: "wake", want: Wake},
		{in: "hibernate", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePowerEvent(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePowerEvent(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePowerEvent(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestPowerEventFromSignal(t *testing.T) {
	tests := []struct {
		name   string
		sig    *dbus.Signal
		want   PowerEvent
		wantOK bool
	}{
		{
			name:   "going to sleep",
			sig:    &dbus.Signal{Name: "org.freedesktop.login1.Manager.PrepareForSleep", Body: []interface{}{true}},
			want:   Sleep,
			wantOK: true,
		},
		{
			name:   "woke up",
			sig:    &dbus.Signal{Name: "org.freedesktop.login1.Manager.PrepareForSleep", Body: []interface{}{false}},
			want:   Wake,
			wantOK: true,
		},
		{
			name: "other member",
			sig:  &dbus.Signal{Name: "org.freedesktop.login1.Manager.PrepareForShutdown", Body: []interface{}{true}},
		},
		{
			name: "missing body",
			sig:  &dbus.Signal{Name: "org.freedesktop.login1.Manager.PrepareForSleep"},
		},
		{
			name: "wrong body type",
			sig:  &dbus.Signal{Name: "org.freedesktop.login1.Manager.PrepareForSleep", Body: []interface{}{"yes"}},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := powerEventFromSignal(tt.sig)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("powerEventFromSignal() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSignalMember(t *testing.T) {
	tests := map[string]string{
		"io.github.spacebar.Signals.space_changed": "space_changed",
		"io.github.spacebar.Signals.":              "",
		"nodots":                                   "",
	}
	for in, want := range tests {
		if got := signalMember(in); got != want {
			t.Errorf("signalMember(%q) = %q, want %q", in, got, want)
		}
	}
}
