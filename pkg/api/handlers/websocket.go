package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pantryplay/pantryplay/pkg/api/events"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/task"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultPongTimeout  = 10 * time.Second
	wsWriteTimeout      = 10 * time.Second
	wsReadLimit         = 64 << 10
)

// WebSocketConfig configures websocket handler behavior.
type WebSocketConfig struct {
	AllowedOrigins []string
	MaxConnections int
	PingInterval   time.Duration
	PongTimeout    time.Duration
}

// feedRequest changes a client's filter:
//
//	{"type":"subscribe","batch_id":"...","kinds":["generate_recipe"]}
//	{"type":"unsubscribe","kinds":["track_waste"]}
type feedRequest struct {
	Type     string   `json:"type"`
	BatchID  string   `json:"batch_id,omitempty"`
	BatchIDs []string `json:"batch_ids,omitempty"`
	Kinds    []string `json:"kinds,omitempty"`
}

// feedReply acknowledges a feedRequest with the resulting filter, or
// reports why it was rejected.
type feedReply struct {
	Type     string   `json:"type"`
	BatchIDs []string `json:"batch_ids,omitempty"`
	Kinds    []string `json:"kinds,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// WebSocketHandler streams agent events on /ws/events. Each client sees
// every event until it subscribes to specific batches or task kinds.
type WebSocketHandler struct {
	log          logger.Logger
	hub          *hub
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewWebSocketHandler creates a websocket handler.
func NewWebSocketHandler(log logger.Logger, cfg WebSocketConfig) *WebSocketHandler {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongTimeout
	}

	origins := append([]string(nil), cfg.AllowedOrigins...)
	return &WebSocketHandler{
		log: log.With("handler", "websocket"),
		hub: newHub(cfg.MaxConnections),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return originAllowed(r, origins) },
		},
		pingInterval: cfg.PingInterval,
		pongTimeout:  cfg.PongTimeout,
	}
}

// ServeHTTP upgrades the request and runs the client until it disconnects.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}
	if h.hub.full() {
		http.Error(w, errTooManyClients.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newWSClient(conn)
	if err := h.hub.add(client); err != nil {
		// Lost the race for the last slot.
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(wsWriteTimeout))
		_ = conn.Close()
		return
	}

	h.log.Debug("websocket client connected", "remote", r.RemoteAddr, "clients", h.hub.len())
	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *WebSocketHandler) readLoop(c *wsClient) {
	defer h.hub.remove(c)

	wait := h.pingInterval + h.pongTimeout
	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", "error", err)
			}
			return
		}
		c.reply(h.handleRequest(c, data))
	}
}

func (h *WebSocketHandler) writeLoop(c *wsClient) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		h.hub.remove(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteTimeout))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

// handleRequest applies a feed request and returns the reply for it.
func (h *WebSocketHandler) handleRequest(c *wsClient, raw []byte) feedReply {
	var req feedRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return feedReply{Type: "error", Error: "invalid message"}
	}

	batchIDs := trimAll(append(req.BatchIDs, req.BatchID))
	kinds := trimAll(req.Kinds)
	for _, k := range kinds {
		if !task.Kind(k).Valid() {
			return feedReply{Type: "error", Error: "unknown task kind " + k}
		}
	}

	var typ string
	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case "subscribe":
		c.filter.apply(true, batchIDs, kinds)
		typ = "subscribed"
	case "unsubscribe":
		c.filter.apply(false, batchIDs, kinds)
		typ = "unsubscribed"
	default:
		return feedReply{Type: "error", Error: "unknown message type " + req.Type}
	}

	reply := feedReply{Type: typ}
	reply.BatchIDs, reply.Kinds = c.filter.snapshot()
	return reply
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Broadcast sends an event to matching websocket clients.
func (h *WebSocketHandler) Broadcast(event events.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return h.hub.publish(event)
}

// Forward relays events from ch until ctx is done or ch is closed.
func (h *WebSocketHandler) Forward(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := h.Broadcast(event); err != nil {
				h.log.Warn("websocket broadcast failed", "type", event.Type, "error", err)
			}
		}
	}
}

// Connections returns the number of connected clients.
func (h *WebSocketHandler) Connections() int {
	return h.hub.len()
}

// Close disconnects every client.
func (h *WebSocketHandler) Close() {
	h.hub.closeAll()
}

// originAllowed accepts requests without an Origin header, listed origins
// and same-host origins.
func originAllowed(r *http.Request, allowed []string) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimSpace(a), origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}
