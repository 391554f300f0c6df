package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ecli/pkg/types"
)

// Registry maps identities to running trackers. All methods are safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	trackers  map[int]*Tracker
	nextID    int
	publisher EventPublisher
}

var logger = zerolog.Nop()

// SetLogger installs the logger used by the registry.
func SetLogger(l zerolog.Logger) { logger = l }

// New returns an empty registry with no event publisher.
func New() *Registry { return NewWithConfig(Config{}) }

// NewWithConfig returns an empty registry using cfg's collaborators.
func NewWithConfig(cfg Config) *Registry {
	r := &Registry{trackers: make(map[int]*Tracker), publisher: cfg.Publisher}
	if r.publisher == nil {
		r.publisher = noopPublisher{}
	}
	return r
}

// Start assigns t the next identity, registers it under name and starts its
// runner. It returns 0 when t is nil or the runner fails to start; the
// identity consumed by a failed start is not reused.
func (r *Registry) Start(t *Tracker, name string) int {
	id, _ := r.Launch(t, name)
	return id
}

// Launch is Start reporting why a start failed.
//
// The tracker is listed while its runner starts. A Stop or StopAll that
// removes it in that window waits for the start to finish and then stops
// the runner, so no runner outlives its registry entry.
func (r *Registry) Launch(t *Tracker, name string) (int, error) {
	if t == nil || t.runner == nil {
		return 0, errNoRunner
	}
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	t.ID = id
	t.Name = name
	t.StartedAt = time.Now()
	t.ready = make(chan struct{})
	r.trackers[id] = t
	r.mu.Unlock()

	err := t.runner.Start()
	if err != nil {
		t.startErr = startError{id: id, name: name, err: err}
		r.mu.Lock()
		if cur, ok := r.trackers[id]; ok && cur == t {
			delete(r.trackers, id)
		}
		r.mu.Unlock()
		close(t.ready)
		trackersFailed.Inc()
		logger.Error().Err(err).Int("id", id).Str("tracker", name).Msg("tracker failed to start")
		r.publisher.Publish(Event{Name: "tracker_start_failed", TrackerID: id, Tracker: name, Fields: map[string]any{"error": err.Error()}})
		return 0, t.startErr
	}
	trackersStarted.Inc()
	trackersRunning.Inc()
	close(t.ready)
	logger.Info().Int("id", id).Str("tracker", name).Msg("tracker started")
	r.publisher.Publish(Event{Name: "tracker_start", TrackerID: id, Tracker: name, Fields: map[string]any{"locator": t.Locator}})
	return id, nil
}

// List returns a snapshot of (id, name) pairs ordered by id.
func (r *Registry) List() []types.TrackerInfo {
	r.mu.RLock()
	out := make([]types.TrackerInfo, 0, len(r.trackers))
	for id, t := range r.trackers {
		out = append(out, types.TrackerInfo{ID: id, Name: t.Name})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the (id, name) pair of a registered tracker.
func (r *Registry) Get(id int) (types.TrackerInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trackers[id]
	if !ok {
		return types.TrackerInfo{}, false
	}
	return types.TrackerInfo{ID: id, Name: t.Name}, true
}

// Len returns the number of registered trackers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trackers)
}

// Stop unregisters id and stops its runner, returning once the runner has
// released its resources. Unknown identities are ignored.
func (r *Registry) Stop(id int) {
	r.mu.Lock()
	t, ok := r.trackers[id]
	delete(r.trackers, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.stopTracker(t)
}

// StopAll stops every registered tracker.
func (r *Registry) StopAll() {
	r.mu.Lock()
	all := make([]*Tracker, 0, len(r.trackers))
	for id, t := range r.trackers {
		all = append(all, t)
		delete(r.trackers, id)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range all {
		wg.Add(1)
		go func(t *Tracker) {
			defer wg.Done()
			r.stopTracker(t)
		}(t)
	}
	wg.Wait()
}

// stopTracker waits for a pending start and stops the runner if it came up.
func (r *Registry) stopTracker(t *Tracker) {
	if t.ready != nil {
		<-t.ready
	}
	if t.startErr != nil {
		return
	}
	if err := t.runner.Stop(); err != nil {
		logger.Warn().Err(err).Int("id", t.ID).Str("tracker", t.Name).Msg("tracker stop reported errors")
	}
	trackersStopped.Inc()
	trackersRunning.Dec()
	logger.Info().Int("id", t.ID).Str("tracker", t.Name).Msg("tracker stopped")
	r.publisher.Publish(Event{Name: "tracker_stop", TrackerID: t.ID, Tracker: t.Name, Fields: map[string]any{}})
}
