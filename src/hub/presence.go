package hub

import (
	"github.com/anonchat/server/src/types"
)

// announceJoin tells every other registered connection that ident came
// online. The joiner already got its identity through the username ack, so
// it is excluded here.
func (h *Hub) announceJoin(ident, excludeConnID string) {
	h.broadcastRegistered(types.Event{Name: types.EventUserJoined, Data: ident}, excludeConnID)
}

// announceLeave tells all remaining registered connections that ident went
// offline.
func (h *Hub) announceLeave(ident string) {
	h.broadcastRegistered(types.Event{Name: types.EventUserLeft, Data: ident}, "")
}

// announceRoster pushes the full roster, in registration order, to every
// registered connection.
func (h *Hub) announceRoster() {
	h.broadcastRegistered(types.Event{Name: types.EventOnlineUsers, Data: h.reg.Identities()}, "")
}

// broadcastRegistered delivers evt to every registered connection except
// excludeConnID. Connections that never registered receive nothing.
func (h *Hub) broadcastRegistered(evt types.Event, excludeConnID string) {
	for _, ident := range h.reg.Identities() {
		connID, err := h.reg.Resolve(ident)
		if err != nil || connID == excludeConnID {
			continue
		}
		h.sendToConn(connID, evt)
	}
}

// sendToConn queues evt on a single connection. Sends never block the event
// loop; a full buffer means the frame is dropped.
func (h *Hub) sendToConn(connID string, evt types.Event) bool {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case client.Send <- evt:
		return true
	default:
		h.logger.Warn().Str("client_id", connID).Msg("send buffer full, dropping")
		return false
	}
}
