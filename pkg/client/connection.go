package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
)

// ConnState is the live-update connection state. The UI shows a "live updates
// offline" indicator whenever the state is not Connected; REST mutations keep
// working regardless.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// String returns the state name for logging and UI labels.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = 3 * time.Second
)

// ConnectionConfig configures a relay connection.
type ConnectionConfig struct {
	// URL is the websocket endpoint including the token query parameter,
	// e.g. "ws://localhost:8080/api/v1/ws?token=...".
	URL string

	// Rooms to join after each successful connect. Defaults to the
	// repair-orders room.
	Rooms []string

	// MaxAttempts bounds consecutive failed connection attempts before the
	// connection gives up. A successful connect resets the counter.
	MaxAttempts int

	// RetryDelay is the fixed delay between attempts.
	RetryDelay time.Duration

	// OnEvent receives every decoded relay event. Must not be nil.
	OnEvent func(domain.Event)

	// OnStateChange, when set, is called on every state transition.
	OnStateChange func(ConnState)

	Logger *slog.Logger
}

// Connection manages the websocket link to the event relay:
// Disconnected -> Connecting -> Connected -> (Disconnected on error/close),
// with bounded automatic retry back to Connecting.
type Connection struct {
	cfg    ConnectionConfig
	dialer *websocket.Dialer
	logger *slog.Logger

	mu    sync.RWMutex
	state ConnState
}

// NewConnection creates a connection. Run must be called to start it.
func NewConnection(cfg ConnectionConfig) (*Connection, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("connection url is required")
	}
	if cfg.OnEvent == nil {
		return nil, fmt.Errorf("an event callback is required")
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = []string{domain.RoomRepairOrders}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Connection{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		logger: cfg.Logger,
	}, nil
}

// State returns the current connection state.
func (c *Connection) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) setState(state ConnState) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.mu.Unlock()

	if changed && c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(state)
	}
}

// Run connects and keeps reading events until the context is cancelled or the
// retry budget is exhausted. It blocks; callers usually run it in a goroutine.
func (c *Connection) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			attempts++
			c.setState(StateDisconnected)
			c.logger.Warn("relay connection attempt failed",
				"attempt", attempts,
				"max_attempts", c.cfg.MaxAttempts,
				"error", err,
			)

			if attempts >= c.cfg.MaxAttempts {
				return fmt.Errorf("relay unreachable after %d attempts: %w", attempts, err)
			}

			select {
			case <-time.After(c.cfg.RetryDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		attempts = 0
		c.setState(StateConnected)
		c.logger.Info("relay connection established")

		err = c.readLoop(ctx, conn)
		_ = conn.Close()
		c.setState(StateDisconnected)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("relay connection lost", "error", err)
	}
}

// dial establishes the websocket connection and joins the configured rooms.
func (c *Connection) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}

	for _, room := range c.cfg.Rooms {
		join := map[string]any{
			"type":    "JOIN_ROOM",
			"payload": map[string]string{"room": room},
		}
		if err := conn.WriteJSON(join); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to join room %q: %w", room, err)
		}
	}

	return conn, nil
}

// readLoop decodes incoming events and hands them to the callback. Closing
// the connection from another goroutine unblocks ReadMessage, so cancellation
// is handled by a small watcher.
func (c *Connection) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event domain.Event
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Warn("failed to decode relay event", "error", err)
			continue
		}

		c.cfg.OnEvent(event)
	}
}
