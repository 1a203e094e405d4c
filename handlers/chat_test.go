package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"chatx/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateChatByParticipantID(t *testing.T) {
	env := newTestEnv()
	peer := primitive.NewObjectID()

	w := env.do(http.MethodPost, "/api/chats", map[string]any{
		"participantId": peer.Hex(),
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}
	if !env.chats.created {
		t.Error("no chat was created")
	}
}

func TestCreateChatIsIdempotent(t *testing.T) {
	env := newTestEnv()
	peer := primitive.NewObjectID()
	body := map[string]any{"participantId": peer.Hex()}

	if w := env.do(http.MethodPost, "/api/chats", body); w.Code != http.StatusCreated {
		t.Fatalf("first call status = %d, want 201", w.Code)
	}
	if w := env.do(http.MethodPost, "/api/chats", body); w.Code != http.StatusOK {
		t.Errorf("second call status = %d, want 200 for the existing chat", w.Code)
	}
	if len(env.chats.chats) != 1 {
		t.Errorf("%d chats exist, want 1", len(env.chats.chats))
	}
}

func TestCreateChatByIdentifier(t *testing.T) {
	env := newTestEnv()
	peer := &models.User{ID: primitive.NewObjectID(), Username: "bob"}
	env.users.byIdentifier["bob"] = peer

	w := env.do(http.MethodPost, "/api/chats", map[string]any{
		"identifier": "bob",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}
}

func TestCreateChatUnknownIdentifier(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/chats", map[string]any{
		"identifier": "nobody@example.com",
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateChatWithSelf(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/chats", map[string]any{
		"participantId": env.userID.Hex(),
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(env.chats.chats) != 0 {
		t.Error("a self chat was created")
	}
}

func TestCreateChatInvalidParticipantID(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/chats", map[string]any{
		"participantId": "zzz",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetChatListReturnsOwnChats(t *testing.T) {
	env := newTestEnv()
	env.addChat(primitive.NewObjectID())
	env.addChat(primitive.NewObjectID())

	// Someone else's chat must not leak in.
	other := &models.Chat{
		ID:      primitive.NewObjectID(),
		Members: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
	}
	env.chats.chats[other.ID] = other

	w := env.do(http.MethodGet, "/api/chats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Chats []models.ChatView `json:"chats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Chats) != 2 {
		t.Errorf("got %d chats, want 2", len(resp.Chats))
	}
}

func TestGetChatNotFoundAndForeignLookAlike(t *testing.T) {
	env := newTestEnv()

	// Absent chat.
	w := env.do(http.MethodGet, "/api/chats/"+primitive.NewObjectID().Hex(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("absent chat status = %d, want 404", w.Code)
	}

	// Existing chat without the caller. Must be indistinguishable.
	other := &models.Chat{
		ID:      primitive.NewObjectID(),
		Members: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
	}
	env.chats.chats[other.ID] = other

	w = env.do(http.MethodGet, "/api/chats/"+other.ID.Hex(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign chat status = %d, want 404", w.Code)
	}
}

func TestGetChatInvalidID(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodGet, "/api/chats/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
