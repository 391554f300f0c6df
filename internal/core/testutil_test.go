package core

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ecli/internal/handler"
	"ecli/internal/runner"
	"ecli/pkg/types"
)

// fakeResolver serves packages from a map keyed by locator.
type fakeResolver struct {
	pkgs map[string]string
}

func (f fakeResolver) Resolve(ctx context.Context, locator, inline string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if p, ok := f.pkgs[locator]; ok {
		return []byte(p), nil
	}
	return nil, errors.New("not found: " + locator)
}

type fakeRunner struct {
	name    string
	handler handler.EventHandler
	args    []string
	started atomic.Int32
	stopped atomic.Int32
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Start() error {
	f.started.Add(1)
	return nil
}

func (f *fakeRunner) Stop() error {
	f.stopped.Add(1)
	return nil
}

// runnerRecorder is a runner.Factory that remembers what it built.
type runnerRecorder struct {
	mu      sync.Mutex
	runners []*fakeRunner
	err     error
}

func (rr *runnerRecorder) factory() runner.Factory {
	return func(h handler.EventHandler, locator string, payload []byte, args []string) (runner.Runner, error) {
		if rr.err != nil {
			return nil, rr.err
		}
		pkg, _, _ := runner.ParsePackage(payload)
		r := &fakeRunner{name: runner.DisplayName(pkg, locator), handler: h, args: args}
		rr.mu.Lock()
		rr.runners = append(rr.runners, r)
		rr.mu.Unlock()
		return r, nil
	}
}

func (rr *runnerRecorder) last() *fakeRunner {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if len(rr.runners) == 0 {
		return nil
	}
	return rr.runners[len(rr.runners)-1]
}

const okPackage = `{"name":"opensnoop","bpf_object":"AA=="}`

func newTestCore(t *testing.T, cfg Config) (*Core, *runnerRecorder) {
	t.Helper()
	rr := &runnerRecorder{}
	if cfg.Resolver == nil {
		cfg.Resolver = fakeResolver{pkgs: map[string]string{"/pkgs/opensnoop.json": okPackage}}
	}
	if cfg.NewRunner == nil {
		cfg.NewRunner = rr.factory()
	}
	c := New(cfg)
	t.Cleanup(c.Close)
	return c, rr
}

func plainText() []types.HandlerConfig {
	return []types.HandlerConfig{{Name: "plain_text"}}
}

// fakeSignals replaces the signal plumbing with a channel the test drives.
type fakeSignals struct {
	mu     sync.Mutex
	ch     chan<- os.Signal
	resets atomic.Int32
}

func installFakeSignals(t *testing.T) *fakeSignals {
	t.Helper()
	fs := &fakeSignals{}
	origNotify, origReset := notifySignal, resetSignal
	notifySignal = func(c chan<- os.Signal, sig ...os.Signal) {
		fs.mu.Lock()
		fs.ch = c
		fs.mu.Unlock()
	}
	resetSignal = func(sig ...os.Signal) { fs.resets.Add(1) }
	t.Cleanup(func() { notifySignal, resetSignal = origNotify, origReset })
	return fs
}

// deliver sends an interrupt without blocking; it reports whether the
// handler channel was installed.
func (fs *fakeSignals) deliver() bool {
	fs.mu.Lock()
	ch := fs.ch
	fs.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- os.Interrupt:
	default:
	}
	return true
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s", d)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
