package live

import (
	"log"
	"sync"

	"chatx/models"
)

// Conn is one live connection as the broadcaster sees it. Send must not
// block; implementations drop or disconnect slow clients themselves.
type Conn interface {
	ID() string
	UserID() string
	Send(data []byte)
}

// Rooms multicasts events to connections subscribed to a chat and carries
// the global broadcasts that are not room-scoped. One chat id maps to one
// room; rooms exist only while someone is joined.
type Rooms struct {
	mu    sync.RWMutex
	conns map[string]Conn            // connID -> conn
	rooms map[string]map[string]Conn // chatID -> connID -> conn
}

func NewRooms() *Rooms {
	return &Rooms{
		conns: make(map[string]Conn),
		rooms: make(map[string]map[string]Conn),
	}
}

func (r *Rooms) Register(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
}

// Unregister drops the connection and removes it from every room it had
// joined, which immediately stops live delivery to it.
func (r *Rooms) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connID)
	for chatID, members := range r.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, chatID)
		}
	}
}

// Join subscribes a connection to a chat's live events. Idempotent.
func (r *Rooms) Join(connID, chatID string) {
	if chatID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return
	}
	members, ok := r.rooms[chatID]
	if !ok {
		members = make(map[string]Conn)
		r.rooms[chatID] = members
	}
	members[connID] = conn
}

// Leave unsubscribes a connection from a chat. Idempotent.
func (r *Rooms) Leave(connID, chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.rooms[chatID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, chatID)
		}
	}
}

// RoomSize reports how many connections are joined to a chat.
func (r *Rooms) RoomSize(chatID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[chatID])
}

// PublishMessage fans a stored message out to the room, then tells every
// connected client to refresh its chat list. Publishing into an empty
// room is a no-op; offline clients catch up through pagination.
func (r *Rooms) PublishMessage(msg *models.MessageView) {
	event, err := marshalEvent(EventChatMessage, msg)
	if err != nil {
		log.Printf("marshal chat:message event: %v", err)
		return
	}
	r.broadcastRoom(msg.ChatID, event, "")

	refresh, err := marshalEvent(EventChatRefresh, RefreshPayload{
		ChatID:  msg.ChatID,
		Preview: msg.Text,
		Message: msg,
	})
	if err != nil {
		log.Printf("marshal chat:refresh event: %v", err)
		return
	}
	r.broadcastAll(refresh)
}

// PublishTyping relays a typing transition to the rest of the room. The
// originating connection never hears its own indicator back.
func (r *Rooms) PublishTyping(chatID, user string, typing bool, originConnID string) {
	eventType := EventTypingStop
	if typing {
		eventType = EventTypingStart
	}
	event, err := marshalEvent(eventType, TypingPayload{ChatID: chatID, User: user})
	if err != nil {
		log.Printf("marshal %s event: %v", eventType, err)
		return
	}
	r.broadcastRoom(chatID, event, originConnID)
}

// PublishRoster pushes the full online-user set to every connection.
func (r *Rooms) PublishRoster(roster []string) {
	event, err := marshalEvent(EventUserOnline, roster)
	if err != nil {
		log.Printf("marshal user:online event: %v", err)
		return
	}
	r.broadcastAll(event)
}

func (r *Rooms) broadcastRoom(chatID string, data []byte, exceptConnID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for connID, conn := range r.rooms[chatID] {
		if connID == exceptConnID {
			continue
		}
		conn.Send(data)
	}
}

func (r *Rooms) broadcastAll(data []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, conn := range r.conns {
		conn.Send(data)
	}
}
