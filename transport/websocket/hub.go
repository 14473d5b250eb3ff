package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

// Hub maps connection identities to live clients and delivers outbound envelopes.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*client),
	}
}

func (that *Hub) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[c.id] = c
}

func (that *Hub) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.clients[c.id]; ok && current == c {
		delete(that.clients, c.id)
		c.closeSend()
	}
}

// Publish - encodes each envelope once and queues it for every recipient still connected.
func (that *Hub) Publish(envelopes []entity.Envelope) {
	log := that.logger.With("method", "Publish")

	for _, envelope := range envelopes {
		data, err := encodeMessage(envelope.Action, envelope.Payload)
		if err != nil {
			log.Error("failed to encode envelope", "action", envelope.Action, "error", err)
			continue
		}

		that.deliver(envelope.Recipients, envelope.Action, data)
	}
}

// send - delivers a single message to one identity, outside the match loop.
func (that *Hub) send(identity, action string, payload any) {
	data, err := encodeMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "method", "send", "action", action, "error", err)
		return
	}

	that.deliver([]string{identity}, action, data)
}

func (that *Hub) deliver(recipients []string, action string, data []byte) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, identity := range recipients {
		c, ok := that.clients[identity]
		if !ok {
			continue
		}

		select {
		case c.send <- data:
		default:
			that.logger.Warn("client buffer is full, message dropped", "method", "deliver", "identity", identity, "action", action)
		}
	}
}

// Len - number of connected clients.
func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

// Close - closes every client connection. Their read loops then run the usual disconnect path.
func (that *Hub) Close() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, c := range that.clients {
		_ = c.conn.Close()
	}
}
