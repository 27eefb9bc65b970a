package appicon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type countingResolver struct {
	mu    sync.Mutex
	calls map[string]int
	paths map[string]string
	err   error
}

func (r *countingResolver) Resolve(_ context.Context, app string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[app]++
	if r.err != nil {
		return "", r.err
	}
	if p, ok := r.paths[app]; ok {
		return p, nil
	}
	return "", ErrNotFound
}

func (r *countingResolver) count(app string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[app]
}

func TestCache_ResolvesOncePerApp(t *testing.T) {
	r := &countingResolver{paths: map[string]string{"Safari": "/Applications/Safari.app/Contents/Resources/AppIcon.icns"}}
	c := NewCache(r)

	for i := 0; i < 3; i++ {
		p, err := c.Lookup(context.Background(), "Safari")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if p != r.paths["Safari"] {
			t.Errorf("Lookup() = %q", p)
		}
	}
	if n := r.count("Safari"); n != 1 {
		t.Errorf("resolver called %d times, want 1", n)
	}
}

func TestCache_CachesMisses(t *testing.T) {
	r := &countingResolver{}
	c := NewCache(r)

	for i := 0; i < 2; i++ {
		if _, err := c.Lookup(context.Background(), "Unknown"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
		}
	}
	if n := r.count("Unknown"); n != 1 {
		t.Errorf("resolver called %d times, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_DoesNotCacheTransientErrors(t *testing.T) {
	r := &countingResolver{err: errors.New("mdfind: process timed out")}
	c := NewCache(r)

	c.Lookup(context.Background(), "Mail")
	c.Lookup(context.Background(), "Mail")

	if n := r.count("Mail"); n != 2 {
		t.Errorf("resolver called %d times, want 2", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCache_EmptyApp(t *testing.T) {
	c := NewCache(&countingResolver{})
	if _, err := c.Lookup(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

type stubRunner struct {
	out  string
	args []string
}

func (r *stubRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	r.args = args
	return []byte(r.out), nil
}

func TestMDFindResolver(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "Notes.app")
	resources := filepath.Join(bundle, "Contents", "Resources")
	if err := os.MkdirAll(resources, 0755); err != nil {
		t.Fatal(err)
	}
	icon := filepath.Join(resources, "AppIcon.icns")
	if err := os.WriteFile(icon, []byte("icns"), 0644); err != nil {
		t.Fatal(err)
	}

	r := &stubRunner{out: filepath.Join(dir, "Missing.app") + "\n" + bundle + "\n"}
	got, err := MDFindResolver{Runner: r}.Resolve(context.Background(), "Notes")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != icon {
		t.Errorf("Resolve() = %q, want %q", got, icon)
	}

	if _, err := (MDFindResolver{Runner: &stubRunner{}}).Resolve(context.Background(), "Nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestBundleIcon_FallsBackToAnyIcns(t *testing.T) {
	dir := t.TempDir()
	resources := filepath.Join(dir, "Odd.app", "Contents", "Resources")
	if err := os.MkdirAll(resources, 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(resources, "icon-main.icns")
	if err := os.WriteFile(want, nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, ok := bundleIcon(filepath.Join(dir, "Odd.app"))
	if !ok || got != want {
		t.Errorf("bundleIcon() = %q, %v, want %q", got, ok, want)
	}
}
