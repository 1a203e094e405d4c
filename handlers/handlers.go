package handlers

import (
	"context"
	"net/http"

	"chatx/config"
	"chatx/models"
	"chatx/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store interfaces are satisfied by the Mongo-backed types in store and by
// in-memory fakes in tests.

type UserStore interface {
	Register(ctx context.Context, username, email, password, avatar string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ByIdentifier(ctx context.Context, identifier string) (*models.User, error)
}

type ChatStore interface {
	FindOrCreateDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, bool, error)
	GetForMember(ctx context.Context, chatID, userID primitive.ObjectID) (*models.ChatView, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChatView, error)
}

type MessageStore interface {
	Append(ctx context.Context, chatID, senderID primitive.ObjectID, text string, attachments []models.Attachment) (*models.MessageView, error)
	List(ctx context.Context, chatID primitive.ObjectID, limit int, cursor string) (*models.MessagePage, error)
	MarkRead(ctx context.Context, chatID, userID primitive.ObjectID) error
	UnreadCount(ctx context.Context, chatID, userID primitive.ObjectID) (int64, error)
}

// Broadcaster is the live fan-out surface the REST side needs.
type Broadcaster interface {
	PublishMessage(msg *models.MessageView)
}

type Handlers struct {
	Cfg      *config.Config
	Users    UserStore
	Chats    ChatStore
	Messages MessageStore
	Live     Broadcaster
	Push     *PushService
}

func New(cfg *config.Config, users UserStore, chats ChatStore, messages MessageStore, live Broadcaster, push *PushService) *Handlers {
	return &Handlers{
		Cfg:      cfg,
		Users:    users,
		Chats:    chats,
		Messages: messages,
		Live:     live,
		Push:     push,
	}
}

// currentUser pulls the authenticated principal set by the JWT middleware.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

// fail maps a store error onto the HTTP taxonomy.
func fail(c *gin.Context, err error, fallback string) {
	status := store.HTTPStatus(err)
	message := fallback
	if status != http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		message = err.Error()
	}
	c.JSON(status, gin.H{"error": message})
}
