package live

import (
	"log"
	"net/http"
	"time"

	"chatx/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Gateway owns the process-wide live state: presence, rooms and typing.
// It is constructed once at startup and injected into handlers, and torn
// down with the process.
type Gateway struct {
	Presence *Presence
	Rooms    *Rooms
	Typing   *TypingTracker

	jwtSecret string
}

func NewGateway(jwtSecret string, typingTTL time.Duration) *Gateway {
	g := &Gateway{
		Presence:  NewPresence(),
		Rooms:     NewRooms(),
		Typing:    NewTypingTracker(typingTTL),
		jwtSecret: jwtSecret,
	}
	// A typing entry whose stop event never arrived expires here; the
	// room hears the stop as if the client had sent it.
	g.Typing.OnExpire = func(chatID, user string) {
		g.Rooms.PublishTyping(chatID, user, false, "")
	}
	return g
}

// HandleWS upgrades the connection and runs it until disconnect. A bad or
// missing token does not reject the connection; the client just stays
// anonymous with no presence entry.
func (g *Gateway) HandleWS(c *gin.Context) {
	userID := ""
	if token := c.Query("token"); token != "" {
		id, err := middleware.ParseToken(g.jwtSecret, token)
		if err == nil {
			userID = id
		} else {
			log.Printf("websocket handshake with invalid token: %v", err)
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:      uuid.NewString(),
		userID:  userID,
		conn:    conn,
		gateway: g,
		send:    make(chan []byte, sendBuffer),
	}

	g.Rooms.Register(client)
	if userID != "" {
		g.Presence.MarkOnline(userID, client.id)
		g.Rooms.PublishRoster(g.Presence.Roster())
	}

	client.sendEvent(EventConnected, ConnectedPayload{UserID: userID})

	go client.writePump()
	go client.readPump()
}

func (g *Gateway) drop(c *Client) {
	g.Rooms.Unregister(c.id)
	c.closeSend()
	if c.userID != "" && g.Presence.MarkOffline(c.userID, c.id) {
		g.Rooms.PublishRoster(g.Presence.Roster())
	}
}
