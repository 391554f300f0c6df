package tracker

import (
	"time"

	"ecli/internal/handler"
	"ecli/internal/runner"
)

// Tracker is a runnable unit together with the handler chain it exports
// events through. ID and Name are assigned by Registry.Start.
type Tracker struct {
	ID        int
	Name      string
	Locator   string
	StartedAt time.Time

	// Handler is the head of the tracker's chain, possibly nil.
	Handler handler.EventHandler

	runner runner.Runner

	// ready is closed once the runner's Start has returned; startErr is
	// its result.
	ready    chan struct{}
	startErr error
}

// NewTracker wraps r into a tracker ready for Registry.Start.
func NewTracker(locator string, h handler.EventHandler, r runner.Runner) *Tracker {
	return &Tracker{Locator: locator, Handler: h, runner: r}
}

// RunnerName is the name the runnable unit reports for itself.
func (t *Tracker) RunnerName() string {
	if t == nil || t.runner == nil {
		return ""
	}
	return t.runner.Name()
}

// Config holds optional Registry collaborators.
type Config struct {
	Publisher EventPublisher
}
