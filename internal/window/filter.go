package window

import "context"

// AccessorySet holds the applications that have no regular Dock presence.
// Windows owned by them are phantom entries as far as the bar is concerned.
type AccessorySet struct {
	names map[string]struct{}
	pids  map[int]struct{}
}

// NewAccessorySet builds a set from application names and process IDs
func NewAccessorySet(names []string, pids []int) AccessorySet {
	set := AccessorySet{
		names: make(map[string]struct{}, len(names)),
		pids:  make(map[int]struct{}, len(pids)),
	}
	for _, n := range names {
		if n != "" {
			set.names[n] = struct{}{}
		}
	}
	for _, p := range pids {
		if p > 0 {
			set.pids[p] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the window's owning application is an accessory.
// A window with a PID is matched by PID only, since a regular application
// can share its name with an accessory helper. The name is the fallback for
// windows without a PID.
func (a AccessorySet) Contains(w Window) bool {
	if w.PID > 0 {
		_, ok := a.pids[w.PID]
		return ok
	}
	if w.App != "" {
		_, ok := a.names[w.App]
		return ok
	}
	return false
}

// Len returns the number of known accessory applications
func (a AccessorySet) Len() int {
	return len(a.names) + len(a.pids)
}

// AccessorySource supplies the accessory applications of the desktop session.
// It is queried on every fetch.
type AccessorySource interface {
	Accessories(ctx context.Context) (AccessorySet, error)
}

// NoAccessories is an AccessorySource that never reports accessory applications
type NoAccessories struct{}

// Accessories returns an empty set
func (NoAccessories) Accessories(context.Context) (AccessorySet, error) {
	return NewAccessorySet(nil, nil), nil
}

// Filter drops windows that should not be shown: fully transparent, hidden
// and sticky windows, floating windows without a title (helpers and overlays)
// and windows of accessory applications. Applying it twice is a no-op.
func Filter(windows []Window, accessory AccessorySet) []Window {
	kept := make([]Window, 0, len(windows))
	for _, w := range windows {
		if visible(w, accessory) {
			kept = append(kept, w)
		}
	}
	return kept
}

func visible(w Window, accessory AccessorySet) bool {
	switch {
	case w.Opacity == 0, w.IsHidden, w.IsSticky:
		return false
	case w.IsFloating && w.HasBlankTitle():
		return false
	case accessory.Contains(w):
		return false
	}
	return true
}
