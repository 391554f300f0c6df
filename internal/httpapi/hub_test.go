package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ecli/internal/handler"
	"ecli/pkg/types"
)

func dialEvents(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers=%d, want %d", h.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastsInjectedHandlerEvents(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(NewMux(newMockService(), hub))
	defer srv.Close()

	conn := dialEvents(t, srv)
	waitSubscribers(t, hub, 1)

	var forwarded []handler.Event
	head := hub.Handler()
	head.AddHandler(handler.NewFunc(func(e handler.Event) { forwarded = append(forwarded, e) }))
	ts := time.Unix(1700000000, 42)
	head.Handle(handler.Event{Tracker: "opensnoop", Time: ts, Data: []byte("pid=1 comm=init")})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg types.EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("json: %v", err)
	}
	if msg.Tracker != "opensnoop" || msg.Data != "pid=1 comm=init" || msg.TimeUnixNano != ts.UnixNano() {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(forwarded) != 1 {
		t.Fatalf("event not forwarded down the chain: %d", len(forwarded))
	}
}

func TestHub_HandlerNodesAreIndependent(t *testing.T) {
	hub := NewHub()
	a, b := hub.Handler(), hub.Handler()
	a.AddHandler(handler.NewFunc(func(handler.Event) {}))
	if b.Next() != nil {
		t.Fatalf("hub handler nodes must not share successors")
	}
}

func TestHub_StatusCountsSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(NewMux(newMockService(), hub))
	defer srv.Close()

	dialEvents(t, srv)
	waitSubscribers(t, hub, 1)

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var st types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.Subscribers != 1 {
		t.Fatalf("subscribers=%d", st.Subscribers)
	}
}

func TestHub_DisconnectRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(NewMux(newMockService(), hub))
	defer srv.Close()

	conn := dialEvents(t, srv)
	waitSubscribers(t, hub, 1)
	conn.Close()
	waitSubscribers(t, hub, 0)
}

func TestHub_CloseDisconnectsAndRefuses(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewMux(newMockService(), hub))
	defer srv.Close()

	conn := dialEvents(t, srv)
	waitSubscribers(t, hub, 1)
	hub.Close()
	if hub.Subscribers() != 0 {
		t.Fatalf("subscribers after close=%d", hub.Subscribers())
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close frame after hub close")
	}

	late := dialEvents(t, srv)
	_ = late.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := late.ReadMessage(); err == nil {
		t.Fatalf("expected closed hub to refuse new subscribers")
	}
}

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(handler.Event{Tracker: "x", Time: time.Now(), Data: []byte("y")})
}

func TestOriginAllowed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://api.local/events", nil)
	if !originAllowed(r) {
		t.Fatalf("no origin should be allowed")
	}
	r.Header.Set("Origin", "http://api.local")
	if !originAllowed(r) {
		t.Fatalf("same host should be allowed")
	}
	r.Header.Set("Origin", "http://evil.example")
	if originAllowed(r) {
		t.Fatalf("cross origin should be refused without CORS")
	}
	SetCORSOptions(true, []string{"http://evil.example"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	if !originAllowed(r) {
		t.Fatalf("configured origin should be allowed")
	}
}
