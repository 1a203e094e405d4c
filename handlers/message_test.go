package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"chatx/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSendMessagePersistsAndFansOut(t *testing.T) {
	env := newTestEnv()
	chat := env.addChat(primitive.NewObjectID())

	w := env.do(http.MethodPost, "/api/messages", map[string]any{
		"chatId": chat.ID.Hex(),
		"text":   "  hello there  ",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}
	if len(env.messages.appended) != 1 {
		t.Fatalf("appended %d messages, want 1", len(env.messages.appended))
	}
	if got := env.messages.appended[0].Text; got != "hello there" {
		t.Errorf("stored text = %q, want trimmed", got)
	}

	// Sending does not touch older messages' read state; the new message
	// itself is created already read by the sender.
	if len(env.messages.markReads) != 0 {
		t.Errorf("MarkRead called %d times on send, want 0", len(env.messages.markReads))
	}

	if len(env.live.published) != 1 {
		t.Fatalf("published %d live events, want 1", len(env.live.published))
	}
	if env.live.published[0].ChatID != chat.ID.Hex() {
		t.Errorf("published for chat %q, want %q", env.live.published[0].ChatID, chat.ID.Hex())
	}
}

func TestSendMessageEmptyBodyRejected(t *testing.T) {
	env := newTestEnv()
	chat := env.addChat(primitive.NewObjectID())

	w := env.do(http.MethodPost, "/api/messages", map[string]any{
		"chatId": chat.ID.Hex(),
		"text":   "   ",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(env.live.published) != 0 {
		t.Error("a rejected message was still broadcast")
	}
}

func TestSendMessageAttachmentOnly(t *testing.T) {
	env := newTestEnv()
	chat := env.addChat(primitive.NewObjectID())

	w := env.do(http.MethodPost, "/api/messages", map[string]any{
		"chatId": chat.ID.Hex(),
		"attachments": []models.Attachment{
			{URL: "https://cdn.example.com/photo.png"},
		},
	})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}
}

func TestSendMessageToForeignChat(t *testing.T) {
	env := newTestEnv()

	// A chat the caller does not belong to.
	other := &models.Chat{
		ID:      primitive.NewObjectID(),
		Members: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
	}
	env.chats.chats[other.ID] = other

	w := env.do(http.MethodPost, "/api/messages", map[string]any{
		"chatId": other.ID.Hex(),
		"text":   "intruder",
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if len(env.messages.appended) != 0 {
		t.Error("message was stored despite failed membership check")
	}
}

func TestSendMessageInvalidChatID(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/messages", map[string]any{
		"chatId": "not-an-id",
		"text":   "hi",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetMessagesPassesPagingParams(t *testing.T) {
	env := newTestEnv()
	chat := env.addChat(primitive.NewObjectID())
	cursor := primitive.NewObjectID().Hex()

	w := env.do(http.MethodGet, "/api/messages/"+chat.ID.Hex()+"?limit=25&cursor="+cursor, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if env.messages.lastLimit != 25 {
		t.Errorf("limit = %d, want 25", env.messages.lastLimit)
	}
	if env.messages.lastCur != cursor {
		t.Errorf("cursor = %q, want %q", env.messages.lastCur, cursor)
	}
}

func TestGetMessagesUnknownChat(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/api/messages/"+primitive.NewObjectID().Hex(), nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestMarkAsRead(t *testing.T) {
	env := newTestEnv()
	chat := env.addChat(primitive.NewObjectID())
	env.messages.unread = 3

	w := env.do(http.MethodPatch, "/api/messages/"+chat.ID.Hex()+"/read", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if len(env.messages.markReads) != 1 {
		t.Fatalf("MarkRead called %d times, want 1", len(env.messages.markReads))
	}
	if call := env.messages.markReads[0]; call.userID != env.userID {
		t.Errorf("MarkRead for user %v, want the caller %v", call.userID, env.userID)
	}

	// The response carries the recomputed count, zero after marking.
	var resp struct {
		Success     bool  `json:"success"`
		UnreadCount int64 `json:"unreadCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.UnreadCount != 0 {
		t.Errorf("response = %+v, want success with unreadCount 0", resp)
	}
	if env.messages.unreadCalls != 1 {
		t.Errorf("UnreadCount called %d times, want 1", env.messages.unreadCalls)
	}
}

func TestMarkAsReadForeignChat(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPatch, "/api/messages/"+primitive.NewObjectID().Hex()+"/read", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if len(env.messages.markReads) != 0 {
		t.Error("MarkRead ran without a membership check passing")
	}
}
