package hub

import (
	"sync"
	"time"

	"github.com/anonchat/server/src/types"
)

// Client wraps a WebSocket connection and manages message flow.
type Client struct {
	ID          string
	conn        types.Conn
	hub         *Hub
	Send        chan types.Event
	connectedAt time.Time
	mu          sync.Mutex
	done        chan struct{}
	closed      bool
}

// NewClient creates a new WebSocket client wrapper. The ID is the opaque
// connection identifier; the display identity is bound later, when the
// connection registers.
func NewClient(id string, conn types.Conn, h *Hub) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		hub:         h,
		Send:        make(chan types.Event, 256),
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// ReadPump reads frames from the WebSocket and routes them to the hub.
// Transport framing keeps a single connection's events in order.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		var evt types.Inbound
		if err := c.conn.ReadJSON(&evt); err != nil {
			return
		}
		evt.ConnID = c.ID
		c.hub.incoming <- evt
	}
}

// WritePump writes events from the send channel to the WebSocket.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case evt, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close signals the client to stop its pumps. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
		close(c.Send)
	}
}
