package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"chatx/models"
	"chatx/store"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushService sends best-effort web-push notifications to chat members
// who are not the sender. Failures are logged and never surface to the
// message sender.
type PushService struct {
	Subs    *store.PushSubs
	Public  string
	Private string
	Subject string
}

func NewPushService(subs *store.PushSubs, public, private, subject string) *PushService {
	if public == "" || private == "" {
		log.Println("VAPID keys not configured, push notifications disabled")
		return nil
	}
	return &PushService{Subs: subs, Public: public, Private: private, Subject: subject}
}

// NotifyNewMessage runs in its own goroutine after a message is stored.
func (p *PushService) NotifyNewMessage(chat *models.ChatView, message *models.MessageView) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in push notification: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	body := message.Text
	if body == "" && len(message.Attachments) > 0 {
		body = "Sent an attachment"
	}
	payload, err := json.Marshal(map[string]string{
		"title":  message.Sender.Username + " sent a message",
		"body":   body,
		"chatId": message.ChatID,
		"icon":   message.Sender.Avatar,
	})
	if err != nil {
		log.Printf("marshal push payload: %v", err)
		return
	}

	for _, member := range chat.Members {
		if member.ID == message.Sender.ID {
			continue
		}
		memberID, err := primitive.ObjectIDFromHex(member.ID)
		if err != nil {
			continue
		}

		sub, err := p.Subs.ByUser(ctx, memberID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Printf("failed to find push subscription: %v", err)
			continue
		}

		resp, err := webpush.SendNotification(payload, &sub.Sub, &webpush.Options{
			Subscriber:      p.Subject,
			VAPIDPublicKey:  p.Public,
			VAPIDPrivateKey: p.Private,
			TTL:             30,
		})
		if err != nil {
			log.Printf("failed to send push to %s: %v", member.ID, err)
			continue
		}
		resp.Body.Close()
	}
}

// Subscribe stores the caller's browser push subscription.
func (h *Handlers) Subscribe(c *gin.Context) {
	if h.Push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications not configured"})
		return
	}

	var sub webpush.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.Push.Subs.Save(c.Request.Context(), userID, sub); err != nil {
		fail(c, err, "Failed to store subscription")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *Handlers) GetVapidPublicKey(c *gin.Context) {
	if h.Push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.Push.Public})
}
