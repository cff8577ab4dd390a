package websocket

import (
	"log/slog"
	"sync"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
	"github.com/novatech/repair-desk-backend/internal/core/ports"
)

// broadcastMessage pairs an event with the room it is addressed to.
type broadcastMessage struct {
	room  string
	event domain.Event
}

// Hub maintains the set of active clients and room memberships, and fans
// broadcast events out to room subscribers. Membership is the only shared
// mutable state; one mutex guards the whole map. Delivery happens outside the
// lock so a slow consumer never blocks joins or leaves.
type Hub struct {
	// clients holds every registered connection
	clients map[*Client]bool

	// rooms maps room names to subscribed clients
	rooms map[string]map[*Client]bool

	// broadcast carries producer events into the hub loop
	broadcast chan broadcastMessage

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	// logger for the hub
	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan broadcastMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast enqueues an event for every subscriber of the repair-orders room.
// This method implements the ports.EventBroadcaster interface. Events are
// dropped when the hub channel is full; the store already committed and a
// client can always re-fetch, so the loss is logged and tolerated.
func (h *Hub) Broadcast(event domain.Event) error {
	return h.BroadcastToRoom(domain.RoomRepairOrders, event)
}

// BroadcastToRoom enqueues an event for every subscriber of the given room.
func (h *Hub) BroadcastToRoom(room string, event domain.Event) error {
	select {
	case h.broadcast <- broadcastMessage{room: room, event: event}:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"order_no", event.OrderNo,
			"room", room,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.Disconnect(client)

		case msg := <-h.broadcast:
			h.broadcastEvent(msg.room, msg.event)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info("client registered",
		"remote_addr", client.RemoteAddr(),
		"total_connections", len(h.clients),
	)
}

// Join adds the client to a room's subscriber set. Joining twice has the same
// effect as joining once; unknown rooms are created on first join.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.addSubscription(room)

	h.logger.Debug("client joined room",
		"remote_addr", client.RemoteAddr(),
		"room", room,
	)
}

// Leave removes the client from a room's subscriber set. No-op when the
// client is not a member.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(client, room)
	client.removeSubscription(room)

	h.logger.Debug("client left room",
		"remote_addr", client.RemoteAddr(),
		"room", room,
	)
}

// Disconnect removes the client from the hub and every room it joined, and
// closes its send channel. An in-flight broadcast that already snapshotted the
// subscriber set may still deliver to the buffered channel; that is acceptable
// under at-most-once semantics.
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for _, room := range client.subscriptions() {
		h.removeFromRoom(client, room)
	}

	client.CloseSend()

	h.logger.Info("client disconnected",
		"remote_addr", client.RemoteAddr(),
		"total_connections", len(h.clients),
	)
}

// removeFromRoom deletes the membership entry and drops empty rooms.
// Callers must hold h.mu.
func (h *Hub) removeFromRoom(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// broadcastEvent delivers an event to every client subscribed to the room at
// the time of the call.
func (h *Hub) broadcastEvent(room string, event domain.Event) {
	h.mu.RLock()
	members, ok := h.rooms[room]
	if !ok {
		// No subscribers: the event is lost, which at-most-once allows.
		h.mu.RUnlock()
		return
	}

	// Copy the subscriber set to avoid holding the lock while sending
	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"order_no", event.OrderNo,
		"room", room,
		"client_count", len(clients),
	)

	// Each delivery is independent: a full buffer drops that client without
	// affecting the others or the broadcaster.
	for _, client := range clients {
		if !client.trySend(event) {
			h.logger.Warn("client send buffer full, disconnecting",
				"remote_addr", client.RemoteAddr(),
			)
			h.Disconnect(client)
		}
	}
}

// ClientCount returns the total number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of active rooms
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientsInRoom returns the number of clients subscribed to a room
func (h *Hub) ClientsInRoom(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, ok := h.rooms[room]; ok {
		return len(members)
	}
	return 0
}
