package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"chatx/database"
	"chatx/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Chats struct {
	db       *database.Mongo
	users    *Users
	messages *Messages
}

func NewChats(db *database.Mongo, users *Users, messages *Messages) *Chats {
	return &Chats{db: db, users: users, messages: messages}
}

// DirectKey is the canonical identity of a direct chat: the sorted member
// ids joined with a colon. The unique index on it is what prevents two
// simultaneous first-contact requests from creating two chats.
func DirectKey(a, b primitive.ObjectID) string {
	ids := []string{a.Hex(), b.Hex()}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// FindOrCreateDirect returns the chat whose member set is exactly {a, b},
// creating it if absent. The created flag reports whether this call made
// it. A duplicate-key error from the membersKey index means another
// request won the race, in which case the winner's chat is returned.
func (s *Chats) FindOrCreateDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, bool, error) {
	key := DirectKey(a, b)

	var chat models.Chat
	err := s.db.Chats.FindOne(ctx, bson.M{"membersKey": key}).Decode(&chat)
	if err == nil {
		return &chat, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	chat = models.Chat{
		ID:         primitive.NewObjectID(),
		Members:    []primitive.ObjectID{a, b},
		MembersKey: key,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := s.db.Chats.InsertOne(ctx, chat); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			var existing models.Chat
			if err := s.db.Chats.FindOne(ctx, bson.M{"membersKey": key}).Decode(&existing); err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}

	return &chat, true, nil
}

// GetForMember loads a chat only if the user belongs to it. Absent chat
// and non-member access collapse into the same ErrNotFound so callers
// cannot probe for existence.
func (s *Chats) GetForMember(ctx context.Context, chatID, userID primitive.ObjectID) (*models.ChatView, error) {
	var chat models.Chat
	err := retryTransient(ctx, func() error {
		return s.db.Chats.FindOne(ctx, bson.M{"_id": chatID, "members": userID}).Decode(&chat)
	})
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	views, err := s.hydrate(ctx, []models.Chat{chat}, userID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListForUser returns the user's chats, most recently active first, each
// annotated with that user's unread count.
func (s *Chats) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChatView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	var chats []models.Chat
	err := retryTransient(ctx, func() error {
		cursor, err := s.db.Chats.Find(ctx, bson.M{"members": userID}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		chats = chats[:0]
		return cursor.All(ctx, &chats)
	})
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return []models.ChatView{}, nil
	}

	return s.hydrate(ctx, chats, userID)
}

// hydrate resolves member profiles, lastMessage previews and unread
// counts for a batch of chats.
func (s *Chats) hydrate(ctx context.Context, chats []models.Chat, viewerID primitive.ObjectID) ([]models.ChatView, error) {
	memberIDs := make([]primitive.ObjectID, 0, 2*len(chats))
	lastMessageIDs := make([]primitive.ObjectID, 0, len(chats))
	chatIDs := make([]primitive.ObjectID, 0, len(chats))
	seen := make(map[primitive.ObjectID]bool)

	for _, chat := range chats {
		chatIDs = append(chatIDs, chat.ID)
		if !chat.LastMessage.IsZero() {
			lastMessageIDs = append(lastMessageIDs, chat.LastMessage)
		}
		for _, member := range chat.Members {
			if !seen[member] {
				seen[member] = true
				memberIDs = append(memberIDs, member)
			}
		}
	}

	members, err := s.users.summaries(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	lastMessages, err := s.messages.byIDs(ctx, lastMessageIDs)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.UnreadCounts(ctx, chatIDs, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]models.ChatView, len(chats))
	for i, chat := range chats {
		view := models.ChatView{
			ID:          chat.ID.Hex(),
			Members:     make([]models.UserSummary, len(chat.Members)),
			UnreadCount: unread[chat.ID],
			CreatedAt:   chat.CreatedAt,
			UpdatedAt:   chat.UpdatedAt,
		}
		for j, member := range chat.Members {
			view.Members[j] = members[member]
		}
		if msg, ok := lastMessages[chat.LastMessage]; ok {
			view.LastMessage = &msg
		}
		views[i] = view
	}
	return views, nil
}
