// Package appicon resolves application names to icon files and remembers
// the answer per application
package appicon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/bryanchriswhite/spacebar/internal/window"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound means no icon exists for the application
var ErrNotFound = errors.New("icon not found")

// Resolver finds the icon file of an application
type Resolver interface {
	Resolve(ctx context.Context, app string) (string, error)
}

type entry struct {
	path string
	err  error
}

// Cache resolves icons lazily on first request. Misses are cached too, so
// an unknown application costs one lookup per process lifetime.
type Cache struct {
	resolver Resolver

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// NewCache creates an empty cache backed by resolver
func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		entries:  make(map[string]entry),
	}
}

// Lookup returns the icon path for an application
func (c *Cache) Lookup(ctx context.Context, app string) (string, error) {
	if app == "" {
		return "", ErrNotFound
	}

	c.mu.RLock()
	e, ok := c.entries[app]
	c.mu.RUnlock()
	if ok {
		return e.path, e.err
	}

	v, err, _ := c.group.Do(app, func() (any, error) {
		path, err := c.resolver.Resolve(ctx, app)
		if err != nil && !errors.Is(err, ErrNotFound) {
			// transient failures are not remembered
			return "", err
		}

		c.mu.Lock()
		c.entries[app] = entry{path: path, err: err}
		c.mu.Unlock()

		logger.WithComponent("appicon").Debug().
			Str("app", app).
			Str("path", path).
			Bool("found", err == nil).
			Msg("Resolved application icon")
		return path, err
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len returns the number of cached applications
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MDFindResolver locates the application bundle with Spotlight and returns
// the bundle's .icns file
type MDFindResolver struct {
	Runner window.Runner
}

// Resolve implements Resolver
func (r MDFindResolver) Resolve(ctx context.Context, app string) (string, error) {
	query := fmt.Sprintf(`kMDItemContentType == "com.apple.application-bundle" && kMDItemDisplayName == "%s"`, strings.ReplaceAll(app, `"`, ""))
	out, err := r.Runner.Run(ctx, "mdfind", query)
	if err != nil {
		return "", fmt.Errorf("mdfind %q: %w", app, err)
	}

	for _, bundle := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if bundle == "" {
			continue
		}
		if icon, ok := bundleIcon(bundle); ok {
			return icon, nil
		}
	}
	return "", fmt.Errorf("%s: %w", app, ErrNotFound)
}

// bundleIcon picks the icon inside an application bundle
func bundleIcon(bundle string) (string, bool) {
	resources := filepath.Join(bundle, "Contents", "Resources")
	for _, name := range []string{"AppIcon.icns", filepath.Base(strings.TrimSuffix(bundle, ".app")) + ".icns"} {
		p := filepath.Join(resources, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	matches, _ := filepath.Glob(filepath.Join(resources, "*.icns"))
	if len(matches) > 0 {
		return matches[0], true
	}
	return "", false
}
