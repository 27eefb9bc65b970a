package session

import (
	"context"
	"errors"
	"testing"

	"github.com/bryanchriswhite/spacebar/internal/window"
)

type stubRunner struct {
	out  string
	err  error
	name string
	args []string
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return []byte(r.out), r.err
}

const appsJSON = `[
  {"name": "Finder", "bundleId": "com.apple.finder", "pid": 501, "policy": 0},
  {"name": "Bartender 5", "bundleId": "com.surteesstudios.Bartender", "pid": 612, "policy": 1},
  {"name": "Spotlight", "bundleId": "com.apple.Spotlight", "pid": 433, "policy": 2}
]`

func TestOSAScriptSession_RunningApplications(t *testing.T) {
	r := &stubRunner{out: appsJSON}
	s := NewOSAScriptSession(r)

	apps, err := s.RunningApplications(context.Background())
	if err != nil {
		t.Fatalf("RunningApplications() error = %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("expected 3 applications, got %d", len(apps))
	}
	if apps[1].Name != "Bartender 5" || apps[1].PID != 612 || apps[1].Policy != Accessory {
		t.Errorf("unexpected application: %+v", apps[1])
	}

	if r.name != "osascript" || len(r.args) < 2 || r.args[0] != "-l" || r.args[1] != "JavaScript" {
		t.Errorf("unexpected invocation: %s %v", r.name, r.args)
	}
}

func TestOSAScriptSession_Errors(t *testing.T) {
	_, err := NewOSAScriptSession(&stubRunner{err: window.ErrTimeout}).RunningApplications(context.Background())
	if !errors.Is(err, window.ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}

	_, err = NewOSAScriptSession(&stubRunner{out: "execution error: -1743"}).RunningApplications(context.Background())
	if !errors.Is(err, window.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestAccessories(t *testing.T) {
	apps := []Application{
		{Name: "Finder", PID: 501, Policy: Regular},
		{Name: "Bartender 5", PID: 612, Policy: Accessory},
		{Name: "Spotlight", PID: 433, Policy: Prohibited},
	}

	set := Accessories(apps)

	tests := []struct {
		name   string
		window window.Window
		want   bool
	}{
		{name: "regular app", window: window.Window{App: "Finder", PID: 501}, want: false},
		{name: "accessory by pid", window: window.Window{App: "Bartender", PID: 612}, want: true},
		{name: "accessory by name", window: window.Window{App: "Bartender 5"}, want: true},
		{name: "prohibited", window: window.Window{PID: 433}, want: true},
		{name: "regular app named like an accessory", window: window.Window{App: "Bartender 5", PID: 900}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := set.Contains(tt.window); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccessorySource(t *testing.T) {
	src := AccessorySource{Session: NewOSAScriptSession(&stubRunner{out: appsJSON})}

	set, err := src.Accessories(context.Background())
	if err != nil {
		t.Fatalf("Accessories() error = %v", err)
	}
	if set.Len() != 4 {
		t.Errorf("Len() = %d, want 4 (two names, two pids)", set.Len())
	}

	failing := AccessorySource{Session: NewOSAScriptSession(&stubRunner{err: window.ErrProcessSpawn})}
	if _, err := failing.Accessories(context.Background()); !errors.Is(err, window.ErrProcessSpawn) {
		t.Errorf("error = %v, want ErrProcessSpawn", err)
	}
}

func TestApplication_IsAccessory(t *testing.T) {
	if (Application{Policy: Regular}).IsAccessory() {
		t.Error("regular application reported as accessory")
	}
	if !(Application{Policy: Accessory}).IsAccessory() {
		t.Error("accessory application not reported")
	}
	if Policy(7).String() != "Policy(7)" {
		t.Errorf("String() = %q", Policy(7).String())
	}
}
