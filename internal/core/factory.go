package core

import (
	"context"

	"ecli/internal/handler"
	"ecli/internal/tracker"
	"ecli/pkg/types"
)

// CreateTracker builds cfg's handler chain, resolves its package and
// constructs the runnable unit. A non-nil injected handler becomes the
// chain head with the declared chain as its successor. The returned
// tracker is not registered yet (ID 0).
func (c *Core) CreateTracker(ctx context.Context, cfg types.TrackerConfig, injected handler.EventHandler) (*tracker.Tracker, error) {
	h := handler.Build(cfg.ExportHandlers)
	if h == nil && injected == nil {
		logger.Info().Str("url", cfg.URL).Msg("no handler was created for tracker")
	}
	if injected != nil {
		if h != nil {
			injected.AddHandler(h)
		}
		h = injected
	}

	payload, err := c.resolver.Resolve(ctx, cfg.URL, cfg.JSONData)
	if err != nil {
		return nil, resolveError{locator: cfg.URL, err: err}
	}
	r, err := c.newRunner(h, cfg.URL, payload, cfg.Args)
	if err != nil {
		return nil, runnerError{locator: cfg.URL, err: err}
	}
	return tracker.NewTracker(cfg.URL, h, r), nil
}
