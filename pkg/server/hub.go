package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/opinions/pkg/middleware"
	"github.com/vango-dev/opinions/pkg/opinion"
)

// Hub fans opinion events out to websocket watchers.
type Hub struct {
	config   *ServerConfig
	logger   *slog.Logger
	metrics  *middleware.Metrics
	upgrader websocket.Upgrader

	mu       sync.Mutex
	watchers map[*watcher]struct{}
	closed   bool
}

type watcher struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (w *watcher) close() {
	w.once.Do(func() {
		close(w.done)
		_ = w.conn.Close()
	})
}

func newHub(config *ServerConfig, logger *slog.Logger, metrics *middleware.Metrics) *Hub {
	return &Hub{
		config:  config,
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		watchers: make(map[*watcher]struct{}),
	}
}

// Broadcast sends ev to every watcher. Watchers whose queue is full are
// dropped.
func (h *Hub) Broadcast(ev opinion.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode event", "error", err)
		return
	}

	h.mu.Lock()
	var slow []*watcher
	for w := range h.watchers {
		select {
		case w.send <- data:
		default:
			slow = append(slow, w)
		}
	}
	h.mu.Unlock()

	for _, w := range slow {
		h.logger.Warn("dropping slow watcher", "remote", w.conn.RemoteAddr().String())
		h.remove(w)
	}
}

// Len returns the number of connected watchers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}

// ServeHTTP upgrades the request and streams events until the watcher
// disconnects.
func (h *Hub) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("websocket upgrade failed", "error", err)
		if h.metrics != nil {
			h.metrics.RecordWebSocketError(err)
		}
		return
	}

	w := &watcher{
		conn: conn,
		send: make(chan []byte, h.config.WatcherBuffer),
		done: make(chan struct{}),
	}
	if !h.add(w) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.config.WriteTimeout))
		w.close()
		return
	}
	h.logger.Debug("watcher connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(w)
	h.readLoop(w)
}

func (h *Hub) add(w *watcher) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.watchers[w] = struct{}{}
	if h.metrics != nil {
		h.metrics.WatcherConnected()
	}
	return true
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	_, ok := h.watchers[w]
	delete(h.watchers, w)
	h.mu.Unlock()

	if ok {
		if h.metrics != nil {
			h.metrics.WatcherDisconnected()
		}
		h.logger.Debug("watcher disconnected", "remote", w.conn.RemoteAddr().String())
	}
	w.close()
}

// readLoop discards client messages; it exists to process control frames
// and notice disconnects.
func (h *Hub) readLoop(w *watcher) {
	defer h.remove(w)

	wait := 2 * h.config.PingInterval
	w.conn.SetReadLimit(512)
	_ = w.conn.SetReadDeadline(time.Now().Add(wait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(wait))
	})
	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("watcher read error", "error", err)
				if h.metrics != nil {
					h.metrics.RecordWebSocketError(err)
				}
			}
			return
		}
	}
}

func (h *Hub) writeLoop(w *watcher) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()
	defer h.remove(w)

	for {
		select {
		case data := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if h.metrics != nil {
					h.metrics.RecordWebSocketError(err)
				}
				return
			}
		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Close disconnects every watcher and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	watchers := make([]*watcher, 0, len(h.watchers))
	for w := range h.watchers {
		watchers = append(watchers, w)
	}
	h.mu.Unlock()

	for _, w := range watchers {
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.config.WriteTimeout))
		h.remove(w)
	}
}
