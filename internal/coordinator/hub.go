package coordinator

import (
	"sync"

	"github.com/rs/zerolog"
)

// Client is one attached transport of a session — typically a websocket
// connection, but the hub only depends on a buffered send channel so
// tests can attach a plain channel.
type Client struct {
	id   string
	send chan ServerMessage
}

// NewClient creates a Client with a bounded outbound buffer, matching the
// teacher's bounded `client.send` channel (dropped rather than blocking
// the hub on a slow reader).
func NewClient(id string, buffer int) *Client {
	return &Client{id: id, send: make(chan ServerMessage, buffer)}
}

// Messages returns the channel a transport goroutine should range over to
// forward messages to its websocket connection.
func (c *Client) Messages() <-chan ServerMessage { return c.send }

// Hub fans a session's server messages out to every attached Client
// (spec §4.4 "multiple client transports may attach to the same
// coordinator"). Unlike the teacher's Hub, there is no per-workflow or
// per-execution subscription index: one Hub belongs to exactly one
// session, so every attached client receives every message.
//
// Grounded on internal/infrastructure/websocket/hub.go's register/
// unregister channel pattern and non-blocking "drop if buffer full" send,
// collapsed from three subscription indexes to a single flat client set
// since this hub has no cross-session multiplexing to do.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{clients: make(map[*Client]struct{}), log: log}
}

// Register attaches a client so it receives future broadcasts. Per spec
// §9's open question on late joiners, no past messages are replayed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister detaches a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Broadcast sends msg to every currently attached client, dropping it for
// any client whose buffer is full rather than blocking the drain loop.
func (h *Hub) Broadcast(msg ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn().Str("client_id", c.id).Str("type", string(msg.Type)).
				Msg("client buffer full, dropping message")
		}
	}
}

// ClientCount reports the number of attached clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
