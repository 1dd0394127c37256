// Package feed streams drained game messages to websocket observers.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/message"
)

const (
	Path         = "/feed"
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// Envelope is the JSON frame sent for every message.
type Envelope struct {
	Kind    string          `json:"kind"`
	Tick    uint64          `json:"tick"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	id   uint64
	conn *websocket.Conn
	out  chan []byte
}

// Hub fans messages out to observers. A client whose queue is full is
// disconnected rather than allowed to stall the game loop.
type Hub struct {
	log       *zap.Logger
	queueSize int
	upgrader  websocket.Upgrader
	nextID    atomic.Uint64

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewHub(queueSize int, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Hub{
		log:       log,
		queueSize: queueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler serves the feed endpoint.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, h.serveWS)
	return mux
}

func (h *Hub) serveWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	c := &client{id: h.nextID.Add(1), conn: conn, out: make(chan []byte, h.queueSize)}
	if !h.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		conn.Close()
		return
	}
	h.log.Debug("feed observer connected", zap.Uint64("id", c.id), zap.String("remote", r.RemoteAddr))
	go h.writeLoop(c)

	// Observers never send anything meaningful; reading detects disconnects.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()
	defer c.conn.Close()
	for b := range c.out {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	return true
}

// remove must be safe to call from both the reader and the writer.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.out)
}

// Publish encodes m once and queues it for every observer.
func (h *Hub) Publish(tick uint64, m message.Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		h.log.Warn("feed encode", zap.String("kind", m.Kind()), zap.Error(err))
		return
	}
	frame, err := json.Marshal(Envelope{Kind: m.Kind(), Tick: tick, Payload: payload})
	if err != nil {
		h.log.Warn("feed encode", zap.String("kind", m.Kind()), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.out <- frame:
		default:
			h.log.Info("feed observer too slow, dropping", zap.Uint64("id", c.id))
			h.removeLocked(c)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every observer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// Serve runs an HTTP server for the hub until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	h.log.Info("feed listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
