package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/richxcame/map-directions/pkg/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	defaultIdleTimeout = 60 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB

	sendBufferSize = 256
)

// Message represents a WebSocket message
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage builds a message with data encoded as JSON.
func NewMessage(msgType, sessionID string, data interface{}) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		msg.Data = raw
	}
	return msg, nil
}

// Decode unmarshals the message payload into dst.
func (m *Message) Decode(dst interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Type)
	}
	if err := json.Unmarshal(m.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string          // Session identifier
	Conn *websocket.Conn // WebSocket connection
	Send chan *Message   // Buffered channel of outbound messages
	Hub  *Hub

	ctx       context.Context
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewClient creates a new WebSocket client
func NewClient(ctx context.Context, id string, conn *websocket.Conn, hub *Hub) *Client {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan *Message, sendBufferSize),
		Hub:  hub,
		ctx:  logger.ContextWithSessionID(ctx, id),
	}
}

// Context returns the client's context, carrying its session ID.
func (c *Client) Context() context.Context {
	return c.ctx
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	idle := c.Hub.idleTimeout
	c.Conn.SetReadDeadline(time.Now().Add(idle))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(idle))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.WarnContext(c.ctx, "websocket read failed", zap.Error(err))
			}
			break
		}

		msg.Timestamp = time.Now().UTC()
		msg.SessionID = c.ID

		c.Hub.HandleMessage(c, &msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Hub.idleTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				logger.DebugContext(c.ctx, "websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues msg for delivery. A client whose buffer is full is
// disconnected and false is returned.
func (c *Client) SendMessage(msg *Message) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}

	select {
	case c.Send <- msg:
		return true
	default:
		logger.WarnContext(c.ctx, "websocket send buffer full, disconnecting client")
		go c.Hub.Unregister(c)
		return false
	}
}

// SendData encodes data and queues it as a message of msgType.
func (c *Client) SendData(msgType string, data interface{}) bool {
	msg, err := NewMessage(msgType, c.ID, data)
	if err != nil {
		logger.ErrorContext(c.ctx, "failed to encode websocket message", zap.String("type", msgType), zap.Error(err))
		return false
	}
	return c.SendMessage(msg)
}

// Closed reports whether the outbound channel has been closed.
func (c *Client) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.Send)
		c.mu.Unlock()
	})
}

// MarshalJSON custom JSON marshaling
func (m *Message) MarshalJSON() ([]byte, error) {
	type Alias Message
	return json.Marshal(&struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Timestamp: m.Timestamp.Format(time.RFC3339Nano),
		Alias:     (*Alias)(m),
	})
}

// UnmarshalJSON custom JSON unmarshaling
func (m *Message) UnmarshalJSON(data []byte) error {
	type Alias Message
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
		if err != nil {
			return err
		}
		m.Timestamp = t
	}

	return nil
}
