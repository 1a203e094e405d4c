package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"

	"chatx/config"
	"chatx/models"
	"chatx/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUsers struct {
	byIdentifier map[string]*models.User
}

func (f *fakeUsers) Register(ctx context.Context, username, email, password, avatar string) (*models.User, error) {
	return nil, store.ErrConflict
}

func (f *fakeUsers) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return nil, store.ErrUnauthorized
}

func (f *fakeUsers) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (f *fakeUsers) ByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if u, ok := f.byIdentifier[identifier]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

type fakeChats struct {
	chats   map[primitive.ObjectID]*models.Chat
	created bool
}

func (f *fakeChats) FindOrCreateDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, bool, error) {
	key := store.DirectKey(a, b)
	for _, chat := range f.chats {
		if chat.MembersKey == key {
			return chat, false, nil
		}
	}
	chat := &models.Chat{
		ID:         primitive.NewObjectID(),
		Members:    []primitive.ObjectID{a, b},
		MembersKey: key,
	}
	f.chats[chat.ID] = chat
	f.created = true
	return chat, true, nil
}

func (f *fakeChats) GetForMember(ctx context.Context, chatID, userID primitive.ObjectID) (*models.ChatView, error) {
	chat, ok := f.chats[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, m := range chat.Members {
		if m == userID {
			return &models.ChatView{ID: chat.ID.Hex()}, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeChats) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChatView, error) {
	var views []models.ChatView
	for _, chat := range f.chats {
		for _, m := range chat.Members {
			if m == userID {
				views = append(views, models.ChatView{ID: chat.ID.Hex()})
			}
		}
	}
	if views == nil {
		views = []models.ChatView{}
	}
	return views, nil
}

type markReadCall struct {
	chatID primitive.ObjectID
	userID primitive.ObjectID
}

type fakeMessages struct {
	appended    []*models.MessageView
	markReads   []markReadCall
	lastLimit   int
	lastCur     string
	page        *models.MessagePage
	unread      int64
	unreadCalls int
}

func (f *fakeMessages) Append(ctx context.Context, chatID, senderID primitive.ObjectID, text string, attachments []models.Attachment) (*models.MessageView, error) {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil, fmt.Errorf("%w: message must have either text or attachments", store.ErrValidation)
	}
	view := &models.MessageView{
		ID:     primitive.NewObjectID().Hex(),
		ChatID: chatID.Hex(),
		Text:   strings.TrimSpace(text),
		Sender: models.UserSummary{ID: senderID.Hex()},
	}
	f.appended = append(f.appended, view)
	return view, nil
}

func (f *fakeMessages) List(ctx context.Context, chatID primitive.ObjectID, limit int, cursor string) (*models.MessagePage, error) {
	f.lastLimit = limit
	f.lastCur = cursor
	if f.page != nil {
		return f.page, nil
	}
	return &models.MessagePage{Messages: []models.MessageView{}}, nil
}

func (f *fakeMessages) MarkRead(ctx context.Context, chatID, userID primitive.ObjectID) error {
	f.markReads = append(f.markReads, markReadCall{chatID: chatID, userID: userID})
	f.unread = 0
	return nil
}

func (f *fakeMessages) UnreadCount(ctx context.Context, chatID, userID primitive.ObjectID) (int64, error) {
	f.unreadCalls++
	return f.unread, nil
}

type fakeBroadcaster struct {
	published []*models.MessageView
}

func (f *fakeBroadcaster) PublishMessage(msg *models.MessageView) {
	f.published = append(f.published, msg)
}

type testEnv struct {
	router   *gin.Engine
	users    *fakeUsers
	chats    *fakeChats
	messages *fakeMessages
	live     *fakeBroadcaster
	userID   primitive.ObjectID
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		users:    &fakeUsers{byIdentifier: map[string]*models.User{}},
		chats:    &fakeChats{chats: map[primitive.ObjectID]*models.Chat{}},
		messages: &fakeMessages{},
		live:     &fakeBroadcaster{},
		userID:   primitive.NewObjectID(),
	}

	h := New(&config.Config{}, env.users, env.chats, env.messages, env.live, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", env.userID.Hex())
	})
	r.GET("/api/chats", h.GetChatList)
	r.POST("/api/chats", h.CreateChat)
	r.GET("/api/chats/:chatId", h.GetChat)
	r.GET("/api/messages/:chatId", h.GetMessages)
	r.POST("/api/messages", h.SendMessage)
	r.PATCH("/api/messages/:chatId/read", h.MarkAsRead)

	env.router = r
	return env
}

// addChat registers a chat whose members are the env user plus the given peers.
func (env *testEnv) addChat(peers ...primitive.ObjectID) *models.Chat {
	chat := &models.Chat{
		ID:      primitive.NewObjectID(),
		Members: append([]primitive.ObjectID{env.userID}, peers...),
	}
	env.chats.chats[chat.ID] = chat
	return chat
}

func (env *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}
