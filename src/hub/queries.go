package hub

import (
	"github.com/anonchat/server/src/types"
)

// RegisterHandler registers a handler for a named inbound event. The
// register event is owned by the hub itself and cannot be overridden.
func (h *Hub) RegisterHandler(name string, handler types.EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = handler
}

// IdentityOf returns the display identity bound to a connection, or
// registry.ErrNotFound while the connection is still unregistered.
func (h *Hub) IdentityOf(connID string) (string, error) {
	return h.reg.IdentityOf(connID)
}

// Broadcast delivers evt to every registered connection, sender included.
func (h *Hub) Broadcast(evt types.Event) {
	h.broadcastRegistered(evt, "")
}

// SendToIdentity delivers evt only to the connection holding ident. It
// reports false when the identity is not online or the send was dropped.
func (h *Hub) SendToIdentity(ident string, evt types.Event) bool {
	connID, err := h.reg.Resolve(ident)
	if err != nil {
		return false
	}
	return h.sendToConn(connID, evt)
}

// Identities returns the current roster in registration order.
func (h *Hub) Identities() []string {
	return h.reg.Identities()
}

// OnlineCount returns the number of registered identities.
func (h *Hub) OnlineCount() int {
	return h.reg.Len()
}

// ClientCount returns the number of live transport connections, registered
// or not.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
