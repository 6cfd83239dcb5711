// Package router dispatches chat messages: broadcast to everyone or directed
// to a single identity. Delivery is best-effort; every failure mode is a
// silent drop, never a transport error back to the sender.
package router

import (
	"encoding/json"

	"github.com/anonchat/server/src/hub"
	"github.com/anonchat/server/src/types"
	"github.com/rs/zerolog"
)

// Router resolves inbound chat events against the hub's registry.
type Router struct {
	hub    *hub.Hub
	logger zerolog.Logger
}

// New creates a Router and attaches its handlers to the hub.
func New(h *hub.Hub, logger zerolog.Logger) *Router {
	r := &Router{hub: h, logger: logger}
	h.RegisterHandler(types.EventMessage, r.handleMessage)
	h.RegisterHandler(types.EventPrivateMessage, r.handlePrivateMessage)
	return r
}

// handleMessage broadcasts a chat message to every registered connection,
// the sender included. Unregistered senders and empty bodies are dropped.
func (r *Router) handleMessage(connID string, evt types.Inbound) error {
	sender, err := r.hub.IdentityOf(connID)
	if err != nil {
		return nil
	}

	var body string
	if len(evt.Data) > 0 {
		_ = json.Unmarshal(evt.Data, &body)
	}
	if body == "" {
		return nil
	}

	r.logger.Debug().Str("identity", sender).Msg("broadcast message")
	r.hub.Broadcast(types.Event{
		Name: types.EventMessage,
		Data: types.ChatMessage{User: sender, Text: body},
	})
	return nil
}

// handlePrivateMessage delivers a message to exactly one identity. An
// unresolvable target is dropped without feedback so the roster cannot be
// probed through errors.
func (r *Router) handlePrivateMessage(connID string, evt types.Inbound) error {
	sender, err := r.hub.IdentityOf(connID)
	if err != nil {
		return nil
	}

	var pm types.PrivateMessage
	if len(evt.Data) > 0 {
		_ = json.Unmarshal(evt.Data, &pm)
	}
	if pm.To == "" || pm.Message == "" {
		return nil
	}

	delivered := r.hub.SendToIdentity(pm.To, types.Event{
		Name: types.EventPrivateMessage,
		Data: types.PrivateMessage{From: sender, Message: pm.Message},
	})
	if !delivered {
		r.logger.Debug().Str("identity", sender).Str("target", pm.To).Msg("private message target offline, dropped")
	}
	return nil
}
