package tracker

import (
	"errors"
	"sync"
	"sync/atomic"
)

// fakeRunner is an in-memory runner used by the registry tests.
type fakeRunner struct {
	name     string
	startErr error
	stopErr  error
	started  atomic.Int32
	stopped  atomic.Int32
	mu       sync.Mutex
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started.Add(1)
	return nil
}

func (f *fakeRunner) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped.Add(1)
	return f.stopErr
}

var errBoom = errors.New("boom")

func newFake(name string) (*Tracker, *fakeRunner) {
	r := &fakeRunner{name: name}
	return NewTracker("/pkgs/"+name+".json", nil, r), r
}

// gatedRunner blocks in Start until release is closed.
type gatedRunner struct {
	entered  chan struct{}
	release  chan struct{}
	startErr error
	running  atomic.Bool
	stopped  atomic.Int32
}

func newGated() *gatedRunner {
	return &gatedRunner{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedRunner) Name() string { return "gated" }

func (g *gatedRunner) Start() error {
	close(g.entered)
	<-g.release
	if g.startErr != nil {
		return g.startErr
	}
	g.running.Store(true)
	return nil
}

func (g *gatedRunner) Stop() error {
	g.stopped.Add(1)
	g.running.Store(false)
	return nil
}
