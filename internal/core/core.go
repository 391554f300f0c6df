// Package core wires the handler chain builder, the resolver and the
// runner factory to the tracker registry, and drives the process
// lifecycle.
package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ecli/internal/resolver"
	"ecli/internal/runner"
	"ecli/internal/tracker"
	"ecli/pkg/types"
)

// State is the lifecycle state of the process.
type State string

const (
	StateIdle               State = "idle"
	StateStarting           State = "starting"
	StateRunningBounded     State = "running_bounded"
	StateRunningUntilSignal State = "running_until_signal"
	StateRunningServer      State = "running_server"
	StateExited             State = "exited"
)

const defaultPollInterval = time.Second

// Config holds the process-wide settings and collaborators of a Core.
// Nil collaborators are replaced by the production defaults.
type Config struct {
	// EnabledTrackers are started by StartEunomia.
	EnabledTrackers []types.TrackerConfig
	// ExitAfter bounds the run. Zero means run until interrupted (or
	// return immediately in server mode).
	ExitAfter time.Duration
	// Server selects persistent-server mode.
	Server bool
	// PollInterval is how often the interrupt flag is checked. Zero uses 1s.
	PollInterval time.Duration

	Resolver  resolver.Resolver
	NewRunner runner.Factory
	Registry  *tracker.Registry
}

// Core is the entry point used by the CLI and the server frontend.
type Core struct {
	cfg       Config
	resolver  resolver.Resolver
	newRunner runner.Factory
	registry  *tracker.Registry

	mu    sync.RWMutex
	state State

	// exiting is set once by the interrupt handler.
	exiting atomic.Bool
}

var logger = zerolog.Nop()

// SetLogger installs the logger used by the core.
func SetLogger(l zerolog.Logger) { logger = l }

// New constructs a Core from cfg, applying defaults.
func New(cfg Config) *Core {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	c := &Core{
		cfg:       cfg,
		resolver:  cfg.Resolver,
		newRunner: cfg.NewRunner,
		registry:  cfg.Registry,
		state:     StateIdle,
	}
	if c.resolver == nil {
		c.resolver = resolver.New()
	}
	if c.newRunner == nil {
		c.newRunner = runner.NewBPF
	}
	if c.registry == nil {
		c.registry = tracker.New()
	}
	return c
}

// State returns the current lifecycle state.
func (c *Core) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Core) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Exiting reports whether an interrupt has been received.
func (c *Core) Exiting() bool { return c.exiting.Load() }

// Close stops every running tracker.
func (c *Core) Close() { c.registry.StopAll() }
