package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/metrics"
	"github.com/hervehildenbrand/threat-radar/pkg/store"
)

const (
	// Connection settings
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeTimeout   = 10 * time.Second
	maxMessageSize = 64 * 1024

	// MessageSnapshot is the outbound message type carrying a store view.
	MessageSnapshot = "snapshot"
)

// Backend is the store surface the hub needs.
type Backend interface {
	Controller
	View() store.View
	Subscribe() <-chan store.Change
	Unsubscribe(ch <-chan store.Change)
}

// Hub fans store changes out to websocket clients. Each client holds at most
// one pending push, so bursts of changes collapse into one snapshot.
type Hub struct {
	backend  Backend
	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	clients map[*client]struct{}
	changes <-chan store.Change
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// Stats
	messagesSent     uint64
	commandsReceived uint64
	errors           uint64
}

type client struct {
	conn   *websocket.Conn
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// NewHub creates a hub for the given store.
func NewHub(backend Backend, logger *zap.Logger, m *metrics.Metrics) *Hub {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Hub{
		backend: backend,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16384,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger.Named("feed"),
		metrics: m,
		clients: make(map[*client]struct{}),
		done:    make(chan struct{}),
	}
}

// Start subscribes to the store and begins forwarding changes.
func (h *Hub) Start() {
	if h.running.Swap(true) {
		return
	}
	h.changes = h.backend.Subscribe()

	h.wg.Add(1)
	go h.forwardLoop()
	h.logger.Info("feed hub started")
}

// Stop unsubscribes from the store and disconnects every client.
func (h *Hub) Stop() {
	if !h.running.Swap(false) {
		return
	}
	close(h.done)
	h.backend.Unsubscribe(h.changes)
	h.wg.Wait()

	h.mu.Lock()
	for c := range h.clients {
		c.close()
	}
	h.mu.Unlock()
	h.logger.Info("feed hub stopped",
		zap.Uint64("messages_sent", atomic.LoadUint64(&h.messagesSent)),
		zap.Uint64("commands_received", atomic.LoadUint64(&h.commandsReceived)))
}

// Stats returns current statistics.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.Lock()
	clients := len(h.clients)
	h.mu.Unlock()

	return map[string]interface{}{
		"running":           h.running.Load(),
		"clients":           clients,
		"messages_sent":     atomic.LoadUint64(&h.messagesSent),
		"commands_received": atomic.LoadUint64(&h.commandsReceived),
		"errors":            atomic.LoadUint64(&h.errors),
	}
}

func (h *Hub) forwardLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.done:
			return
		case _, ok := <-h.changes:
			if !ok {
				return
			}
			h.broadcast()
		}
	}
}

func (h *Hub) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		// Non-blocking: a pending push already covers this change
		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddUint64(&h.errors, 1)
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	// Initial snapshot
	c.notify <- struct{}{}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.FeedClients.Inc()
	h.logger.Debug("client connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(c)
	h.readPump(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.metrics.FeedClients.Dec()
	c.close()
	h.logger.Debug("client disconnected", zap.String("remote", r.RemoteAddr))
}

func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("client read failed", zap.Error(err))
			}
			return
		}

		// Only process text messages
		if messageType != websocket.TextMessage {
			continue
		}

		cmd, err := ParseCommand(message)
		if err != nil {
			atomic.AddUint64(&h.errors, 1)
			h.logger.Warn("invalid client command", zap.Error(err))
			continue
		}
		if cmd == nil {
			continue
		}
		atomic.AddUint64(&h.commandsReceived, 1)
		Apply(h.backend, cmd)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case <-c.notify:
			if err := h.sendSnapshot(c); err != nil {
				atomic.AddUint64(&h.errors, 1)
				h.logger.Debug("snapshot write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) sendSnapshot(c *client) error {
	data, err := json.Marshal(h.backend.View())
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(Message{Type: MessageSnapshot, Data: data}); err != nil {
		return err
	}
	atomic.AddUint64(&h.messagesSent, 1)
	return nil
}
