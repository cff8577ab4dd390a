package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Capacity of the per-client outbound buffer.
	sendBufferSize = 256
)

// Client is a middleman between a websocket connection and the hub. A client
// with a nil connection is valid and useful in tests: events still arrive on
// its send channel.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Send is the buffered channel of outbound events.
	Send chan domain.Event

	// closed guards Send against writes after CloseSend.
	closed    bool
	closeOnce sync.Once
	sendMu    sync.RWMutex

	// subs tracks room memberships so a disconnect can clean all of them up.
	subs   map[string]bool
	subsMu sync.RWMutex

	logger *slog.Logger
}

// NewClient creates a new WebSocket client.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		Send:   make(chan domain.Event, sendBufferSize),
		subs:   make(map[string]bool),
		logger: logger,
	}
}

// RemoteAddr reports the peer address, or "test" for connectionless clients.
func (c *Client) RemoteAddr() string {
	if c.conn == nil {
		return "test"
	}
	return c.conn.RemoteAddr().String()
}

// CloseSend closes the Send channel exactly once.
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed = true
		close(c.Send)
		c.sendMu.Unlock()
	})
}

// trySend queues an event without blocking. Returns false when the buffer is
// full. Sends after CloseSend are silently discarded: the hub may still hold
// this client in a subscriber snapshot taken before the disconnect.
func (c *Client) trySend(event domain.Event) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed {
		return true
	}

	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

func (c *Client) addSubscription(room string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	c.subs[room] = true
}

func (c *Client) removeSubscription(room string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	delete(c.subs, room)
}

// subscriptions returns a copy of all joined room names.
func (c *Client) subscriptions() []string {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()

	rooms := make([]string, 0, len(c.subs))
	for room := range c.subs {
		rooms = append(rooms, room)
	}
	return rooms
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps events from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeJSON writes a JSON message to the websocket connection
func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Incoming Message Handling ---

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RoomPayload is the payload for join/leave messages.
type RoomPayload struct {
	Room string `json:"room"`
}

// handleIncomingMessage processes messages received from the client
func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "JOIN_ROOM":
		if room, ok := c.parseRoom(msg.Payload); ok {
			c.hub.Join(c, room)
		}

	case "LEAVE_ROOM":
		if room, ok := c.parseRoom(msg.Payload); ok {
			c.hub.Leave(c, room)
		}

	case "PING":
		// Client-side keep-alive, respond with pong
		c.sendPong()

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) parseRoom(payload json.RawMessage) (string, bool) {
	var p RoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal room payload", "error", err)
		return "", false
	}
	if p.Room == "" {
		c.logger.Warn("empty room name in client message")
		return "", false
	}
	return p.Room, true
}

func (c *Client) sendPong() {
	if !c.trySend(domain.Event{Type: "PONG"}) {
		c.logger.Debug("send buffer full, skipping pong")
	}
}
