package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 8 // frames queued per client before new ones are dropped
)

// client is one feed connection. Only its writer goroutine writes to conn.
type client struct {
	conn   *websocket.Conn
	format Format
	send   chan []byte
}

// Hub tracks connected feed clients and fans snapshots out to them.
// It is safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	closed   bool

	frames map[Format][]byte // per-broadcast encode cache
}

// NewHub creates an empty hub that accepts any origin.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		frames: make(map[Format][]byte),
	}
}

// ServeHTTP upgrades the request to a websocket feed client. The encoding is
// picked with ?format=json|msgpack|proto.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, format: format, send: make(chan []byte, sendBuffer)}
	if !h.add(c) {
		conn.Close()
		return
	}
	slog.Debug("feed client connected", "remote", conn.RemoteAddr().String(), "format", string(format))
	go h.writePump(c)
	defer h.remove(c)

	// Clients only listen; reading surfaces the close.
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// writePump drains c.send onto the connection until the hub drops c.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(c.format.MessageType(), frame); err != nil {
			slog.Debug("dropping feed client", "remote", c.conn.RemoteAddr().String(), "error", err)
			h.remove(c)
			return
		}
	}
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// remove drops c and stops its writer. Safe to call more than once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues v for every client in its format without waiting on the
// network. Each format is encoded at most once. A client whose queue is full
// misses this frame. It returns the number of clients the frame was queued for.
func (h *Hub) Broadcast(v any) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return 0
	}

	clear(h.frames)
	sent := 0
	for c := range h.clients {
		frame, ok := h.frames[c.format]
		if !ok {
			var err error
			frame, err = Encode(c.format, v)
			if err != nil {
				slog.Error("failed to encode snapshot", "format", string(c.format), "error", err)
				return sent
			}
			h.frames[c.format] = frame
		}

		select {
		case c.send <- frame:
			sent++
		default:
			slog.Debug("feed client behind, frame skipped", "remote", c.conn.RemoteAddr().String())
		}
	}
	return sent
}

// Close disconnects every client and rejects new ones. Each writer flushes
// its queue and sends a going-away close frame.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve runs an HTTP server exposing the hub at /ws until ctx is done.
func Serve(ctx context.Context, addr string, h *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	h.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
