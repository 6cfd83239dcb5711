package types

import "encoding/json"

// Wire event names. The client sends register, message and private-message;
// everything else flows server to client.
const (
	EventRegister       = "register"
	EventUsername       = "username"
	EventOnlineUsers    = "online-users"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventMessage        = "message"
	EventPrivateMessage = "private-message"
)

// Event is one outbound frame on the chat socket.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// Inbound is a frame read from a client, tagged with the connection that
// produced it. Data stays raw until a handler knows the payload shape.
type Inbound struct {
	ConnID string          `json:"-"`
	Name   string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// EventHandler handles an inbound event from a connection.
type EventHandler func(connID string, evt Inbound) error

// ChatMessage is the broadcast payload: {user, text}.
type ChatMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// PrivateMessage is the directed payload. Clients send {to, message},
// the server delivers {from, message}.
type PrivateMessage struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Message string `json:"message"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}
