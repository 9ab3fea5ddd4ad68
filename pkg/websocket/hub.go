package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/richxcame/map-directions/pkg/logger"
	"go.uber.org/zap"
)

// MessageHandler is a function that handles incoming messages
type MessageHandler func(*Client, *Message)

// Hub maintains the set of active clients and routes their messages
type Hub struct {
	// Registered clients by session ID
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	// Message handlers by message type
	handlers map[string]MessageHandler

	// Called once per client before its pumps start
	connectHooks []func(*Client)
	// Called once per client after it has been removed
	disconnectHooks []func(*Client)

	// A client that sends nothing, pongs included, for this long is dropped
	idleTimeout time.Duration

	done chan struct{}
	mu   sync.RWMutex
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithIdleTimeout overrides how long a silent client is kept. Pings go out at
// nine tenths of it.
func WithIdleTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.idleTimeout = d
		}
	}
}

// BroadcastMessage represents a message to be broadcast
type BroadcastMessage struct {
	TargetID string // Session ID, empty for all clients
	Message  *Message
}

// NewHub creates a new Hub instance
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *BroadcastMessage, 256),
		handlers:    make(map[string]MessageHandler),
		idleTimeout: defaultIdleTimeout,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's main loop. It returns when ctx is cancelled, after
// disconnecting every client.
func (h *Hub) Run(ctx context.Context) {
	logger.Info("websocket hub started")
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case broadcast := <-h.broadcast:
			h.broadcastMessage(broadcast)

		case <-ctx.Done():
			h.shutdown()
			logger.Info("websocket hub stopped")
			return
		}
	}
}

// Register adds client to the hub. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

// Unregister removes client from the hub and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// OnConnect registers fn to run for every new client before any of its
// messages are read.
func (h *Hub) OnConnect(fn func(*Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connectHooks = append(h.connectHooks, fn)
}

func (h *Hub) connected(client *Client) {
	h.mu.RLock()
	hooks := h.connectHooks
	h.mu.RUnlock()
	for _, hook := range hooks {
		hook(client)
	}
}

// OnDisconnect registers fn to run, in its own goroutine, after a client has
// been removed.
func (h *Hub) OnDisconnect(fn func(*Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnectHooks = append(h.disconnectHooks, fn)
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	// Replace an existing client with the same ID
	existing, replaced := h.clients[client.ID]
	if replaced {
		delete(h.clients, client.ID)
		existing.close()
	}
	h.clients[client.ID] = client
	hooks := h.disconnectHooks
	h.mu.Unlock()

	if replaced {
		h.runHooks(existing, hooks)
	}
	logger.DebugContext(client.Context(), "websocket client registered")
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.ID]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	client.close()
	hooks := h.disconnectHooks
	h.mu.Unlock()

	h.runHooks(client, hooks)
	logger.DebugContext(client.Context(), "websocket client unregistered")
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, id)
		client.close()
	}
	hooks := h.disconnectHooks
	h.mu.Unlock()

	for _, client := range clients {
		h.runHooks(client, hooks)
	}
}

func (h *Hub) runHooks(client *Client, hooks []func(*Client)) {
	for _, hook := range hooks {
		go hook(client)
	}
}

// broadcastMessage sends a message to target clients
func (h *Hub) broadcastMessage(broadcast *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if broadcast.TargetID != "" {
		if client, ok := h.clients[broadcast.TargetID]; ok {
			client.SendMessage(broadcast.Message)
		}
		return
	}
	for _, client := range h.clients {
		client.SendMessage(broadcast.Message)
	}
}

// HandleMessage routes incoming messages to appropriate handlers
func (h *Hub) HandleMessage(client *Client, msg *Message) {
	h.mu.RLock()
	handler, exists := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !exists {
		logger.WarnContext(client.Context(), "no handler for message type", zap.String("type", msg.Type))
		client.SendData(TypeError, ErrorPayload{Message: "unknown message type: " + msg.Type})
		return
	}
	handler(client, msg)
}

// RegisterHandler registers a message handler for a specific type
func (h *Hub) RegisterHandler(msgType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[msgType] = handler
	logger.Debug("registered websocket handler", zap.String("type", msgType))
}

// SendToClient sends a message to a specific session
func (h *Hub) SendToClient(sessionID string, msg *Message) {
	select {
	case h.broadcast <- &BroadcastMessage{TargetID: sessionID, Message: msg}:
	case <-h.done:
	}
}

// SendToAll broadcasts a message to all connected clients
func (h *Hub) SendToAll(msg *Message) {
	select {
	case h.broadcast <- &BroadcastMessage{Message: msg}:
	case <-h.done:
	}
}

// GetClient returns a client by ID
func (h *Hub) GetClient(clientID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return client, ok
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
