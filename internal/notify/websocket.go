package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/logger"
)

// wsMessage is the wire envelope pushed to dashboard clients
type wsMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

const (
	wsTypeEvaluation         = "evaluation"
	wsTypeDegradedTransition = "degraded_transition"

	wsWriteTimeout  = 5 * time.Second
	wsSendQueueSize = 32
)

// wsClient is one connected dashboard
type wsClient struct {
	conn     *websocket.Conn
	send     chan wsMessage
	done     chan struct{}
	stopOnce sync.Once
}

// stop signals the write loop to exit. The send channel itself is never
// closed, so a broadcast holding a stale reference cannot panic.
func (c *wsClient) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// WebsocketHub pushes evaluation and degraded-transition events to
// connected dashboard clients. The hub only delivers the two event
// shapes the core emits; everything else about the dashboard lives
// elsewhere.
type WebsocketHub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
}

// NewWebsocketHub creates an empty hub
func NewWebsocketHub() *WebsocketHub {
	return &WebsocketHub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Dashboard origin enforcement belongs to the API layer
				return true
			},
		},
	}
}

// ServeWS upgrades an HTTP request to a websocket subscription. The caller
// mounts this wherever its HTTP surface lives.
func (h *WebsocketHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan wsMessage, wsSendQueueSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(client)
	go h.readLoop(client)
}

// NotifyEvaluation broadcasts an evaluation event
func (h *WebsocketHub) NotifyEvaluation(ctx context.Context, event EvaluationEvent) {
	h.broadcast(wsMessage{
		Type:      wsTypeEvaluation,
		Payload:   event,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NotifyDegradedTransition broadcasts a degraded-mode state change
func (h *WebsocketHub) NotifyDegradedTransition(ctx context.Context, event DegradedTransitionEvent) {
	h.broadcast(wsMessage{
		Type:      wsTypeDegradedTransition,
		Payload:   event,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Name returns the notifier name
func (h *WebsocketHub) Name() string {
	return "websocket_hub"
}

// ClientCount returns the number of connected dashboards
func (h *WebsocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast fans a message out; a client with a full queue is dropped
// rather than allowed to block the evaluation pipeline
func (h *WebsocketHub) broadcast(msg wsMessage) {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case <-c.done:
		case c.send <- msg:
		default:
			logger.WithField("notifier", h.Name()).Warn("Dropping slow websocket client")
			h.remove(c)
		}
	}
}

func (h *WebsocketHub) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.WithError(err).Debug("Websocket write failed")
				h.remove(c)
				return
			}
		}
	}
}

// readLoop drains the connection so pings and close frames are processed
func (h *WebsocketHub) readLoop(c *wsClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *WebsocketHub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		logger.WithField("clients", len(h.clients)).Debug("Websocket client removed")
	}
	h.mu.Unlock()
	c.stop()
}
