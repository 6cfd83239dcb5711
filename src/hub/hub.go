// Package hub owns the per-connection lifecycle: connect, register, active,
// disconnect. All state transitions run on a single event loop, which is the
// one mutation point that gives every connection the same presence order.
package hub

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/anonchat/server/src/identity"
	"github.com/anonchat/server/src/registry"
	"github.com/anonchat/server/src/types"
	"github.com/rs/zerolog"
)

// Hub manages all WebSocket client connections and their identities.
type Hub struct {
	clients map[string]*Client

	reg   *registry.Registry
	alloc *identity.Allocator

	register   chan *Client
	unregister chan *Client
	incoming   chan types.Inbound

	handlers map[string]types.EventHandler

	mu     sync.RWMutex
	logger zerolog.Logger
	done   chan struct{}
}

// New creates a new Hub instance.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		reg:        registry.New(),
		alloc:      identity.NewAllocator(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan types.Inbound, 256),
		handlers:   make(map[string]types.EventHandler),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run starts the hub event loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case evt := <-h.incoming:
			h.handleEvent(evt)
		case <-h.done:
			return
		}
	}
}

// Stop halts the hub event loop.
func (h *Hub) Stop() {
	close(h.done)
}

// Register queues a freshly accepted connection. The connection stays in the
// Connected state (no identity) until its register event arrives.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister queues a connection for removal.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.logger.Info().Str("client_id", c.ID).Msg("client connected")
}

// removeClient tears the connection down exactly once. The leave broadcast
// fires only if the registry actually held an entry, so a connection that
// never registered disconnects silently.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	h.mu.Unlock()

	c.Close()

	ident, err := h.reg.Unregister(c.ID)
	if err != nil {
		h.logger.Info().Str("client_id", c.ID).Msg("client disconnected before registering")
		return
	}

	h.logger.Info().Str("client_id", c.ID).Str("identity", ident).Msg("client left")
	h.announceLeave(ident)
	h.announceRoster()
}

// handleEvent processes one inbound frame on the loop goroutine. The
// register event is lifecycle and handled here; everything else goes to the
// registered handlers.
func (h *Hub) handleEvent(evt types.Inbound) {
	if evt.Name == types.EventRegister {
		h.handleRegister(evt)
		return
	}

	h.mu.RLock()
	handler, ok := h.handlers[evt.Name]
	h.mu.RUnlock()

	if !ok {
		h.logger.Debug().Str("event", evt.Name).Msg("no handler")
		return
	}
	if err := handler(evt.ConnID, evt); err != nil {
		h.logger.Error().Err(err).Str("event", evt.Name).Msg("handler error")
	}
}

// handleRegister moves a connection from Connected to Active: it accepts or
// assigns an identity, commits it to the registry, and announces presence.
func (h *Hub) handleRegister(evt types.Inbound) {
	// A disconnect may already have removed the connection; committing
	// anyway would leave a ghost identity behind.
	h.mu.RLock()
	_, live := h.clients[evt.ConnID]
	h.mu.RUnlock()
	if !live {
		return
	}

	var requested string
	if len(evt.Data) > 0 {
		_ = json.Unmarshal(evt.Data, &requested)
	}
	requested = strings.TrimSpace(requested)

	ident := requested
	if ident == "" {
		var err error
		ident, err = h.alloc.Allocate(h.reg.Has)
		if err != nil {
			h.logger.Error().Err(err).Str("client_id", evt.ConnID).Msg("identity allocation failed")
			return
		}
	}

	switch err := h.reg.Register(evt.ConnID, ident); {
	case err == nil:
	case errors.Is(err, registry.ErrAlreadyRegistered):
		// Duplicate register event on an active connection.
		return
	case errors.Is(err, registry.ErrIdentityTaken):
		// Another live session holds the name; force-assign a fresh one.
		fresh, allocErr := h.alloc.Allocate(h.reg.Has)
		if allocErr != nil {
			h.logger.Error().Err(allocErr).Str("client_id", evt.ConnID).Msg("identity allocation failed")
			return
		}
		if h.reg.Register(evt.ConnID, fresh) != nil {
			return
		}
		h.logger.Info().Str("client_id", evt.ConnID).Str("requested", ident).Str("identity", fresh).Msg("identity taken, reassigned")
		ident = fresh
	default:
		return
	}

	h.logger.Info().Str("client_id", evt.ConnID).Str("identity", ident).Msg("client joined")

	h.sendToConn(evt.ConnID, types.Event{Name: types.EventUsername, Data: ident})
	h.announceJoin(ident, evt.ConnID)
	h.announceRoster()
}
