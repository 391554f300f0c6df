package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ecli/internal/core"
	"ecli/internal/handler"
	"ecli/internal/httpapi"
	"ecli/internal/resolver"
	"ecli/internal/runner"
)

// echoRunner emits one event per argument when started, standing in for a
// loaded eBPF object.
type echoRunner struct {
	name    string
	head    handler.EventHandler
	args    []string
	stopped *atomic.Int32
}

func (r *echoRunner) Name() string { return r.name }

func (r *echoRunner) Start() error {
	for _, a := range r.args {
		r.head.Handle(handler.Event{Tracker: r.name, Time: time.Now(), Data: []byte(a)})
	}
	return nil
}

func (r *echoRunner) Stop() error {
	r.stopped.Add(1)
	return nil
}

type stack struct {
	srv     *httptest.Server
	core    *core.Core
	hub     *httpapi.Hub
	stopped atomic.Int32
}

// newStack wires a real core, resolver and HTTP frontend around echoRunner.
func newStack(t *testing.T) *stack {
	t.Helper()
	s := &stack{}
	s.core = core.New(core.Config{
		Server:   true,
		Resolver: resolver.New(),
		NewRunner: func(h handler.EventHandler, locator string, payload []byte, args []string) (runner.Runner, error) {
			pkg, _, err := runner.ParsePackage(payload)
			if err != nil {
				return nil, err
			}
			return &echoRunner{name: runner.DisplayName(pkg, locator), head: h, args: args, stopped: &s.stopped}, nil
		},
	})
	t.Cleanup(s.core.Close)
	s.hub = httpapi.NewHub()
	t.Cleanup(s.hub.Close)
	s.srv = httptest.NewServer(httpapi.NewMux(s.core, s.hub))
	t.Cleanup(s.srv.Close)
	return s
}

// writePackage writes a minimal tracker package into dir.
func writePackage(t *testing.T, dir, file, name string) string {
	t.Helper()
	p := filepath.Join(dir, file)
	body := `{"name":"` + name + `","bpf_object":"AA=="}`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write package %s: %v", p, err)
	}
	return p
}

func postJSON(t *testing.T, url string, v any) (*http.Response, []byte) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func httpDo(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func subscribe(t *testing.T, s *stack) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.srv.URL, "http")+"/events", nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

// syncBuffer guards plain-text handler output written from runner goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
