package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ecli/internal/handler"
	"ecli/pkg/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	subscriberSend = 256
)

// Hub fans tracker events out to websocket subscribers of GET /events.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	closed   bool
	upgrader websocket.Upgrader
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originAllowed,
		},
	}
}

// Handler returns a fresh chain node that broadcasts every event it sees
// and then forwards it. Each tracker needs its own node.
func (h *Hub) Handler() handler.EventHandler {
	return &hubHandler{hub: h}
}

type hubHandler struct {
	handler.Base
	hub *Hub
}

func (n *hubHandler) Handle(e handler.Event) {
	n.hub.Broadcast(e)
	n.Forward(e)
}

// Broadcast delivers e to every subscriber without blocking. Subscribers
// whose buffer is full miss the event.
func (h *Hub) Broadcast(e handler.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.subs) == 0 {
		return
	}
	msg, err := json.Marshal(types.EventMessage{
		Tracker:      e.Tracker,
		TimeUnixNano: e.Time.UnixNano(),
		Data:         e.Text(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("encode event")
		return
	}
	for s := range h.subs {
		select {
		case s.send <- msg:
			eventsBroadcastTotal.Inc()
		default:
			eventsDroppedTotal.Inc()
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeWS upgrades the request and streams events until the client goes
// away or the hub is closed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	s := &subscriber{conn: conn, send: make(chan []byte, subscriberSend)}
	if !h.add(s) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	logger.Debug().Str("remote", r.RemoteAddr).Msg("event subscriber connected")
	go h.writePump(s)
	h.readPump(s)
}

func (h *Hub) add(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[s] = struct{}{}
	wsSubscribers.Inc()
	return true
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		wsSubscribers.Dec()
	}
	h.mu.Unlock()
	s.close()
}

// readPump drains client frames so control messages are processed.
func (h *Hub) readPump(s *subscriber) {
	defer h.remove(s)
	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	wsSubscribers.Sub(float64(len(subs)))
	h.mu.Unlock()
	for s := range subs {
		s.close()
	}
}
