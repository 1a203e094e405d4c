package live

import (
	"encoding/json"

	"chatx/models"
)

// Event types carried over the live channel, client to server.
const (
	EventChatJoin    = "chat:join"
	EventChatLeave   = "chat:leave"
	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"
	EventPing        = "ping"
)

// Event types carried server to client.
const (
	EventConnected   = "connected"
	EventPong        = "pong"
	EventUserOnline  = "user:online"
	EventChatMessage = "chat:message"
	EventChatRefresh = "chat:refresh"
)

// Envelope is the frame every live event travels in.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RoomPayload struct {
	ChatID string `json:"chatId"`
}

type TypingPayload struct {
	ChatID string `json:"chatId"`
	User   string `json:"user"`
}

// RefreshPayload is the lightweight sidebar-update event broadcast to
// every connected client when any chat receives a message.
type RefreshPayload struct {
	ChatID  string              `json:"chatId"`
	Preview string              `json:"preview"`
	Message *models.MessageView `json:"message"`
}

type ConnectedPayload struct {
	UserID string `json:"userId,omitempty"`
}

func marshalEvent(eventType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}
