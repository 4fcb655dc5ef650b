package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handler consumes decoded realtime events.
type Handler func(Envelope)

// ErrAlreadyConnected is returned when Connect is called on a live channel.
var ErrAlreadyConnected = errors.New("event channel already connected")

// Channel owns the single session-wide websocket connection. It is created
// disconnected; Connect opens the socket and starts the read loop. The
// installed handler can be swapped at any time, including while connected;
// only the latest handler receives subsequent messages.
type Channel struct {
	mu      sync.RWMutex
	conn    *websocket.Conn
	handler Handler
	done    chan struct{}
	log     zerolog.Logger
}

// NewChannel creates a disconnected channel.
func NewChannel(logger zerolog.Logger) *Channel {
	return &Channel{
		log: logger.With().Str("component", "events").Logger(),
	}
}

// Connect derives the websocket endpoint from serverURL and opens the
// connection. A channel holds at most one connection.
func (c *Channel) Connect(ctx context.Context, serverURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return ErrAlreadyConnected
	}

	root, err := WebSocketURL(serverURL)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, root+Path, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	c.done = make(chan struct{})

	go c.readLoop(conn, c.done)

	return nil
}

// SetHandler installs (or replaces) the inbound message handler. The swap
// takes effect immediately on an open connection.
func (c *Channel) SetHandler(handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Connected reports whether the channel currently holds a live connection.
func (c *Channel) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// Close shuts the connection down and resets the channel so it can be
// connected again. Closing a disconnected channel is a no-op.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	close(c.done)

	err := c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	closeErr := c.conn.Close()
	c.conn = nil
	c.done = nil

	if err != nil {
		return fmt.Errorf("send close message: %w", err)
	}
	return closeErr
}

func (c *Channel) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Connection closed; no reconnection policy at this layer.
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.done = nil
			}
			c.mu.Unlock()
			return
		}

		envelope, err := Decode(raw)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed event frame")
			continue
		}

		c.mu.RLock()
		handler := c.handler
		c.mu.RUnlock()

		if handler != nil {
			handler(envelope)
		}
	}
}
