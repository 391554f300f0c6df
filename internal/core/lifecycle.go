package core

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"
)

// Signal plumbing, replaceable in tests.
var (
	notifySignal = signal.Notify
	resetSignal  = signal.Reset
)

// StartEunomia starts the configured trackers and blocks for as long as the
// process should run. It returns the process exit code: 0 on a clean run,
// 1 when startup failed unexpectedly.
func (c *Core) StartEunomia() (code int) {
	logger.Info().Msg("start eunomia...")
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("error", fmt.Sprint(r)).Msg("eunomia start failed")
			c.setState(StateExited)
			code = 1
		}
	}()
	if err := c.run(); err != nil {
		logger.Error().Err(err).Msg("eunomia start failed")
		c.setState(StateExited)
		return 1
	}
	if c.State() != StateRunningServer {
		c.setState(StateExited)
	}
	logger.Debug().Msg("eunomia exit. see you next time!")
	return 0
}

func (c *Core) run() error {
	if c.cfg.ExitAfter < 0 {
		return fmt.Errorf("invalid exit duration %s", c.cfg.ExitAfter)
	}
	c.setState(StateStarting)
	n := c.StartTrackers(context.Background())
	c.checkAutoExit(n)
	return nil
}

// StartTrackers starts every enabled tracker and returns how many started.
func (c *Core) StartTrackers(ctx context.Context) int {
	count := 0
	for _, t := range c.cfg.EnabledTrackers {
		logger.Info().Str("url", t.URL).Msg("start ebpf tracker...")
		if c.StartTracker(ctx, t) > 0 {
			count++
		}
	}
	return count
}

// checkAutoExit decides how long the process stays alive after startup.
func (c *Core) checkAutoExit(started int) {
	switch {
	case c.cfg.ExitAfter > 0:
		logger.Info().Dur("exit_after", c.cfg.ExitAfter).Msg("set exit time...")
		c.setState(StateRunningBounded)
		time.Sleep(c.cfg.ExitAfter)
	case !c.cfg.Server && started > 0:
		c.setState(StateRunningUntilSignal)
		c.waitForInterrupt()
	case c.cfg.Server:
		c.setState(StateRunningServer)
	}
}

// waitForInterrupt installs a one-shot interrupt handler and polls until it
// fires. The handler restores the default disposition so a second
// interrupt terminates the process.
func (c *Core) waitForInterrupt() {
	logger.Info().Msg("press 'Ctrl C' key to exit...")
	ch := make(chan os.Signal, 1)
	notifySignal(ch, os.Interrupt)
	go func() {
		<-ch
		logger.Info().Msg("Ctrl C exit...")
		c.exiting.Store(true)
		resetSignal(os.Interrupt)
	}()
	for !c.exiting.Load() {
		time.Sleep(c.cfg.PollInterval)
	}
}
