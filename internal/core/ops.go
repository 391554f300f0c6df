package core

import (
	"context"

	"ecli/internal/handler"
	"ecli/pkg/types"
)

// StartTracker creates and registers a tracker, returning its identity or
// 0 when it could not be created or started.
func (c *Core) StartTracker(ctx context.Context, cfg types.TrackerConfig) int {
	return c.StartTrackerWithHandler(ctx, cfg, nil)
}

// StartTrackerFromJSON starts a tracker from a raw package. The tracker is
// named after what its runner reports.
func (c *Core) StartTrackerFromJSON(ctx context.Context, raw string) int {
	return c.StartTrackerWithHandler(ctx, types.TrackerConfig{JSONData: raw}, nil)
}

// StartTrackerWithHandler is StartTracker with an extra handler spliced in
// at the head of the tracker's chain. Trackers are named after their
// locator, or after their runner when started from inline JSON.
func (c *Core) StartTrackerWithHandler(ctx context.Context, cfg types.TrackerConfig, injected handler.EventHandler) int {
	id, _ := c.Launch(ctx, cfg, injected)
	return id
}

// Launch is StartTrackerWithHandler reporting why a start failed. The
// error satisfies IsResolveFailed, IsRunnerFailed or tracker.IsStartFailed.
func (c *Core) Launch(ctx context.Context, cfg types.TrackerConfig, injected handler.EventHandler) (int, error) {
	if cfg.URL != "" {
		logger.Info().Str("url", cfg.URL).Msg("tracker is starting")
	} else {
		logger.Info().Msg("tracker is starting")
	}
	t, err := c.CreateTracker(ctx, cfg, injected)
	if err != nil {
		logger.Error().Err(err).Str("url", cfg.URL).Msg("tracker creation failed")
		return 0, err
	}
	name := cfg.URL
	if name == "" {
		name = t.RunnerName()
		logger.Info().Str("tracker", name).Msg("tracker name")
	}
	return c.registry.Launch(t, name)
}

// ListAllTrackers returns the running trackers ordered by identity.
func (c *Core) ListAllTrackers() []types.TrackerInfo { return c.registry.List() }

// GetTracker returns one running tracker.
func (c *Core) GetTracker(id int) (types.TrackerInfo, error) {
	info, ok := c.registry.Get(id)
	if !ok {
		return types.TrackerInfo{}, ErrTrackerNotFound(id)
	}
	return info, nil
}

// StopTracker stops a tracker. Unknown identities are ignored.
func (c *Core) StopTracker(id int) { c.registry.Stop(id) }
