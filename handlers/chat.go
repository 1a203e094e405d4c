package handlers

import (
	"errors"
	"net/http"

	"chatx/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetChatList returns the caller's chats, most recent first, each carrying
// the caller's unread count.
func (h *Handlers) GetChatList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chats, err := h.Chats.ListForUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "Failed to fetch chats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

type CreateChatRequest struct {
	ParticipantID string `json:"participantId"`
	Identifier    string `json:"identifier"`
}

// CreateChat finds or creates the direct chat between the caller and the
// given participant. The participant may be addressed by id or by
// email/username.
func (h *Handlers) CreateChat(c *gin.Context) {
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	var participantID primitive.ObjectID
	if req.ParticipantID != "" {
		var err error
		participantID, err = primitive.ObjectIDFromHex(req.ParticipantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant ID"})
			return
		}
	} else {
		found, err := h.Users.ByIdentifier(ctx, req.Identifier)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			fail(c, err, "Failed to look up user")
			return
		}
		participantID = found.ID
	}

	if participantID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot start a chat with yourself"})
		return
	}

	chat, created, err := h.Chats.FindOrCreateDirect(ctx, userID, participantID)
	if err != nil {
		fail(c, err, "Unable to create chat")
		return
	}

	hydrated, err := h.Chats.GetForMember(ctx, chat.ID, userID)
	if err != nil {
		fail(c, err, "Failed to fetch chat")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"chat": hydrated})
}

// GetChat returns one chat. A chat that does not exist and a chat the
// caller is not a member of are indistinguishable: both are 404.
func (h *Handlers) GetChat(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("chatId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chat, err := h.Chats.GetForMember(c.Request.Context(), chatID, userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}
	if err != nil {
		fail(c, err, "Failed to fetch chat")
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat})
}
