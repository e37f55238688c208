package handlers

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pantryplay/pantryplay/pkg/api/events"
)

const (
	defaultWSMaxConnections = 100
	clientSendBuffer        = 32
)

var errTooManyClients = errors.New("websocket connection limit reached")

// feedFilter narrows the events a client receives. An empty set matches
// everything; batch events carry no kind and pass the kind filter.
type feedFilter struct {
	mu      sync.RWMutex
	batches map[string]struct{}
	kinds   map[string]struct{}
}

func newFeedFilter() *feedFilter {
	return &feedFilter{
		batches: make(map[string]struct{}),
		kinds:   make(map[string]struct{}),
	}
}

func (f *feedFilter) apply(add bool, batchIDs, kinds []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, set := range []struct {
		m      map[string]struct{}
		values []string
	}{{f.batches, batchIDs}, {f.kinds, kinds}} {
		for _, v := range set.values {
			if v == "" {
				continue
			}
			if add {
				set.m[v] = struct{}{}
			} else {
				delete(set.m, v)
			}
		}
	}
}

func (f *feedFilter) matches(e events.Event) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.batches) > 0 {
		if _, ok := f.batches[e.BatchID()]; !ok {
			return false
		}
	}
	if kind := e.TaskKind(); kind != "" && len(f.kinds) > 0 {
		if _, ok := f.kinds[kind]; !ok {
			return false
		}
	}
	return true
}

// snapshot returns the current filter, sorted.
func (f *feedFilter) snapshot() (batchIDs, kinds []string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.batches), sortedKeys(f.kinds)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	filter *feedFilter

	mu     sync.Mutex
	closed bool
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn:   conn,
		send:   make(chan []byte, clientSendBuffer),
		filter: newFeedFilter(),
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// enqueue queues data without blocking. It reports false only when the
// buffer is full; a closed client swallows the message.
func (c *wsClient) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// reply queues a control message for the client. A full buffer drops it.
func (c *wsClient) reply(v any) {
	if data, err := json.Marshal(v); err == nil {
		c.enqueue(data)
	}
}

// hub tracks connected clients and fans events out to them.
type hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	limit   int
}

func newHub(limit int) *hub {
	if limit <= 0 {
		limit = defaultWSMaxConnections
	}
	return &hub{clients: make(map[*wsClient]struct{}), limit: limit}
}

func (h *hub) add(c *wsClient) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= h.limit {
		return errTooManyClients
	}
	h.clients[c] = struct{}{}
	return nil
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

func (h *hub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) full() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) >= h.limit
}

// publish sends e to every client whose filter matches. Clients that
// cannot keep up are disconnected.
func (h *hub) publish(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		if c.filter.matches(e) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			h.remove(c)
		}
	}
	return nil
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}
