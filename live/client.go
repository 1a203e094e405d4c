package live

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client wraps one websocket connection. An unauthenticated client (empty
// userID) stays connected but is granted no presence or room privileges.
type Client struct {
	id      string
	userID  string
	conn    *websocket.Conn
	gateway *Gateway
	send    chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Send queues an event without blocking. A client that cannot keep up
// with its send buffer gets disconnected rather than stalling fan-out.
// The closed flag is checked under the same lock that closes the channel,
// so broadcasts arriving after eviction are silently dropped instead of
// hitting a closed channel.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("live client %s too slow, dropping connection", c.id)
		c.closed = true
		close(c.send)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump() {
	defer func() {
		c.gateway.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("websocket event unmarshal error: %v", err)
			continue
		}

		c.dispatch(env)
	}
}

// dispatch consumes one inbound event. Room and typing events require an
// authenticated user; everything else from an anonymous client is ignored.
func (c *Client) dispatch(env Envelope) {
	if env.Type == EventPing {
		c.sendEvent(EventPong, nil)
		return
	}
	if c.userID == "" {
		return
	}

	switch env.Type {
	case EventChatJoin:
		var p RoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		c.gateway.Rooms.Join(c.id, p.ChatID)

	case EventChatLeave:
		var p RoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		c.gateway.Rooms.Leave(c.id, p.ChatID)

	case EventTypingStart:
		var p TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		user := p.User
		if user == "" {
			user = c.userID
		}
		c.gateway.Typing.Start(p.ChatID, user)
		c.gateway.Rooms.PublishTyping(p.ChatID, user, true, c.id)

	case EventTypingStop:
		var p TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.ChatID == "" {
			return
		}
		user := p.User
		if user == "" {
			user = c.userID
		}
		c.gateway.Typing.Stop(p.ChatID, user)
		c.gateway.Rooms.PublishTyping(p.ChatID, user, false, c.id)
	}
}

func (c *Client) sendEvent(eventType string, payload interface{}) {
	data, err := marshalEvent(eventType, payload)
	if err != nil {
		log.Printf("marshal %s event: %v", eventType, err)
		return
	}
	c.Send(data)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
