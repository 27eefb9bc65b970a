// Package session queries the desktop session for running applications and
// their activation policy
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/bryanchriswhite/spacebar/internal/window"
)

// Policy is an application's activation policy
type Policy int

const (
	// Regular applications have a Dock icon and menu bar
	Regular Policy = iota
	// Accessory applications have no Dock icon but may show windows
	Accessory
	// Prohibited applications never show UI
	Prohibited
)

func (p Policy) String() string {
	switch p {
	case Regular:
		return "regular"
	case Accessory:
		return "accessory"
	case Prohibited:
		return "prohibited"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Application is one running application of the desktop session
type Application struct {
	Name     string `json:"name"`
	BundleID string `json:"bundleId"`
	PID      int    `json:"pid"`
	Policy   Policy `json:"policy"`
}

// IsAccessory reports whether the application lacks a regular Dock presence
func (a Application) IsAccessory() bool {
	return a.Policy != Regular
}

// Session lists the running applications
type Session interface {
	RunningApplications(ctx context.Context) ([]Application, error)
}

// runningAppsScript prints the session's running applications as JSON.
// activationPolicy is 0 (regular), 1 (accessory) or 2 (prohibited).
const runningAppsScript = `
ObjC.import('AppKit');
var apps = $.NSWorkspace.sharedWorkspace.runningApplications;
var out = [];
for (var i = 0; i < apps.count; i++) {
  var app = apps.objectAtIndex(i);
  out.push({
    name: ObjC.unwrap(app.localizedName) || "",
    bundleId: ObjC.unwrap(app.bundleIdentifier) || "",
    pid: app.processIdentifier,
    policy: app.activationPolicy
  });
}
JSON.stringify(out);
`

// OSAScriptSession asks macOS through osascript's JavaScript runtime
type OSAScriptSession struct {
	runner window.Runner
	path   string
}

// NewOSAScriptSession creates a session client running osascript through runner
func NewOSAScriptSession(runner window.Runner) *OSAScriptSession {
	return &OSAScriptSession{runner: runner, path: "osascript"}
}

// RunningApplications returns every running application
func (s *OSAScriptSession) RunningApplications(ctx context.Context) ([]Application, error) {
	out, err := s.runner.Run(ctx, s.path, "-l", "JavaScript", "-e", runningAppsScript)
	if err != nil {
		return nil, fmt.Errorf("list running applications: %w", err)
	}

	var apps []Application
	if err := json.Unmarshal(out, &apps); err != nil {
		return nil, fmt.Errorf("running applications: %w: %v", window.ErrDecode, err)
	}
	return apps, nil
}

// Accessories builds the accessory set used by the window filter
func Accessories(apps []Application) window.AccessorySet {
	var names []string
	var pids []int
	for _, app := range apps {
		if !app.IsAccessory() {
			continue
		}
		names = append(names, app.Name)
		pids = append(pids, app.PID)
	}
	return window.NewAccessorySet(names, pids)
}

// AccessorySource adapts a Session to the window filter. The session is
// queried on every call.
type AccessorySource struct {
	Session Session
}

// Accessories implements window.AccessorySource
func (a AccessorySource) Accessories(ctx context.Context) (window.AccessorySet, error) {
	apps, err := a.Session.RunningApplications(ctx)
	if err != nil {
		return window.AccessorySet{}, err
	}
	set := Accessories(apps)
	logger.WithComponent("session").Debug().
		Int("applications", len(apps)).
		Int("accessories", set.Len()).
		Msg("Queried running applications")
	return set, nil
}
