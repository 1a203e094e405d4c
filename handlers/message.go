package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chatx/models"
	"chatx/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetMessages pages backward through a chat's history. The cursor is the
// oldest message id of the previous page; an empty nextCursor in the
// response means the beginning of the chat was reached.
func (h *Handlers) GetMessages(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("chatId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if _, err := h.Chats.GetForMember(ctx, chatID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		fail(c, err, "Failed to verify chat access")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	page, err := h.Messages.List(ctx, chatID, limit, c.Query("cursor"))
	if err != nil {
		fail(c, err, "Failed to fetch messages")
		return
	}

	c.JSON(http.StatusOK, page)
}

type SendMessageRequest struct {
	ChatID      string              `json:"chatId" binding:"required"`
	Text        string              `json:"text"`
	Attachments []models.Attachment `json:"attachments"`
}

// SendMessage persists a message, fans it out live, and nudges offline
// members with a push notification. Once stored, the message survives
// even if the sender disconnects before seeing the response.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	chat, err := h.Chats.GetForMember(ctx, chatID, userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}
	if err != nil {
		fail(c, err, "Failed to verify chat access")
		return
	}

	// The new message is born read by its sender (readBy starts as
	// [sender]); older messages stay unread until an explicit mark-read.
	message, err := h.Messages.Append(ctx, chatID, userID, req.Text, req.Attachments)
	if err != nil {
		fail(c, err, "Unable to send message")
		return
	}

	h.Live.PublishMessage(message)

	if h.Push != nil {
		go h.Push.NotifyNewMessage(chat, message)
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// MarkAsRead stamps the caller onto every unread message of the chat.
// Safe to call repeatedly.
func (h *Handlers) MarkAsRead(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("chatId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if _, err := h.Chats.GetForMember(ctx, chatID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		fail(c, err, "Failed to verify chat access")
		return
	}

	if err := h.Messages.MarkRead(ctx, chatID, userID); err != nil {
		fail(c, err, "Failed to mark as read")
		return
	}

	count, err := h.Messages.UnreadCount(ctx, chatID, userID)
	if err != nil {
		fail(c, err, "Failed to fetch unread count")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "unreadCount": count})
}
