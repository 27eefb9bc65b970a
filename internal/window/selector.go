package window

import (
	"context"
	"errors"
	"fmt"

	"github.com/bryanchriswhite/spacebar/internal/config"
	"github.com/bryanchriswhite/spacebar/internal/logger"
)

// Candidates returns the backends to probe for the configured selection, in
// probe order
func Candidates(cfg *config.Config, runner Runner, accessory AccessorySource) ([]Backend, error) {
	yabai := NewYabaiBackend(cfg.YabaiPath, runner, accessory)
	aerospace := NewAerospaceBackend(cfg.AerospacePath, runner, accessory)

	switch cfg.Backend {
	case config.BackendAuto, "":
		return []Backend{yabai, aerospace}, nil
	case config.BackendYabai:
		return []Backend{yabai}, nil
	case config.BackendAerospace:
		return []Backend{aerospace}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Select probes the candidates in order and wraps the first reachable one.
// It returns ErrNoProvider when none answers. Selection is not repeated
// automatically; callers reselect on reconfiguration.
func Select(ctx context.Context, candidates ...Backend) (*Provider, error) {
	log := logger.WithComponent("selector")

	var errs []error
	for _, b := range candidates {
		if err := b.Probe(ctx); err != nil {
			log.Debug().Str("backend", b.Name()).Err(err).Msg("Backend not reachable")
			errs = append(errs, err)
			continue
		}

		p := NewProvider(b)
		_, push := p.Notifier()
		log.Info().
			Str("backend", b.Name()).
			Bool("push", push).
			Msg("Selected window manager backend")
		return p, nil
	}

	if len(errs) == 0 {
		return nil, ErrNoProvider
	}
	return nil, fmt.Errorf("%w: %w", ErrNoProvider, errors.Join(errs...))
}
