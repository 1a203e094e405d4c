package store

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"chatx/database"
	"chatx/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPageSize = 40
	MaxPageSize     = 100
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type Messages struct {
	db    *database.Mongo
	users *Users
}

func NewMessages(db *database.Mongo, users *Users) *Messages {
	return &Messages{db: db, users: users}
}

// Append persists a message and bumps the chat's lastMessage/updatedAt.
// A message must carry trimmed text, attachments, or both.
func (s *Messages) Append(ctx context.Context, chatID, senderID primitive.ObjectID, text string, attachments []models.Attachment) (*models.MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return nil, fmt.Errorf("%w: message must have either text or attachments", ErrValidation)
	}

	normalized := make([]models.Attachment, len(attachments))
	for i, att := range attachments {
		normalized[i] = NormalizeAttachment(att)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	msg := models.Message{
		ID:          primitive.NewObjectID(),
		ChatID:      chatID,
		SenderID:    senderID,
		Text:        text,
		Attachments: normalized,
		ReadBy:      []primitive.ObjectID{senderID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.db.Messages.InsertOne(ctx, msg); err != nil {
		return nil, err
	}

	_, err := s.db.Chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"lastMessage": msg.ID, "updatedAt": now}},
	)
	if err != nil {
		// Not critical, the message itself was already saved.
		log.Printf("update chat lastMessage error: %v", err)
	}

	senders, err := s.users.summaries(ctx, []primitive.ObjectID{senderID})
	if err != nil {
		return nil, err
	}

	view := messageView(msg, senders[senderID])
	return &view, nil
}

// List returns one page of history, oldest to newest. The cursor is the id
// of the oldest message from the previous page; only strictly older
// messages are returned. NextCursor is set only when the page came back
// full, so an empty value means the start of the chat was reached.
func (s *Messages) List(ctx context.Context, chatID primitive.ObjectID, limit int, cursor string) (*models.MessagePage, error) {
	limit = clampLimit(limit)

	filter := bson.M{"chat": chatID}
	if cursor != "" {
		cursorID, err := primitive.ObjectIDFromHex(cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid cursor", ErrValidation)
		}
		filter["_id"] = bson.M{"$lt": cursorID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))

	var docs []models.Message
	err := retryTransient(ctx, func() error {
		cur, err := s.db.Messages.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	docs, nextCursor := pageWindow(docs, limit)

	senderIDs := make([]primitive.ObjectID, 0, len(docs))
	seen := make(map[primitive.ObjectID]bool)
	for _, m := range docs {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	senders, err := s.users.summaries(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	page := &models.MessagePage{
		Messages:   make([]models.MessageView, len(docs)),
		NextCursor: nextCursor,
	}
	for i, m := range docs {
		page.Messages[i] = messageView(m, senders[m.SenderID])
	}
	return page, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// pageWindow turns one newest-first batch into delivery order and computes
// the cursor for the next, older page. A partial batch means the start of
// the chat was reached, so no cursor is handed out.
func pageWindow(docs []models.Message, limit int) ([]models.Message, string) {
	nextCursor := ""
	if len(docs) == limit {
		nextCursor = docs[len(docs)-1].ID.Hex()
	}

	for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
		docs[i], docs[j] = docs[j], docs[i]
	}
	return docs, nextCursor
}

// MarkRead adds the user to readBy on every message of the chat that does
// not contain them yet. Re-applying it is a no-op.
func (s *Messages) MarkRead(ctx context.Context, chatID, userID primitive.ObjectID) error {
	return retryTransient(ctx, func() error {
		_, err := s.db.Messages.UpdateMany(ctx,
			bson.M{"chat": chatID, "readBy": bson.M{"$ne": userID}},
			bson.M{"$addToSet": bson.M{"readBy": userID}},
		)
		return err
	})
}

func (s *Messages) UnreadCount(ctx context.Context, chatID, userID primitive.ObjectID) (int64, error) {
	var count int64
	err := retryTransient(ctx, func() error {
		var err error
		count, err = s.db.Messages.CountDocuments(ctx, bson.M{
			"chat":   chatID,
			"readBy": bson.M{"$ne": userID},
		})
		return err
	})
	return count, err
}

// UnreadCounts computes unread totals for many chats in one grouped
// aggregation, for sidebar rendering.
func (s *Messages) UnreadCounts(ctx context.Context, chatIDs []primitive.ObjectID, userID primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	out := make(map[primitive.ObjectID]int64, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}

	pipeline := []bson.M{
		{"$match": bson.M{
			"chat":   bson.M{"$in": chatIDs},
			"readBy": bson.M{"$ne": userID},
		}},
		{"$group": bson.M{"_id": "$chat", "count": bson.M{"$sum": 1}}},
	}

	cursor, err := s.db.Messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ChatID primitive.ObjectID `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ChatID] = row.Count
	}
	return out, nil
}

// byIDs hydrates specific messages, used for lastMessage previews.
func (s *Messages) byIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.MessageView, error) {
	out := make(map[primitive.ObjectID]models.MessageView, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := s.db.Messages.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.Message
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	senderIDs := make([]primitive.ObjectID, 0, len(docs))
	seen := make(map[primitive.ObjectID]bool)
	for _, m := range docs {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	senders, err := s.users.summaries(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	for _, m := range docs {
		out[m.ID] = messageView(m, senders[m.SenderID])
	}
	return out, nil
}

// NormalizeAttachment fills in a missing filename from the URL and
// classifies the file type by extension when the caller did not set one:
// image extensions map to "image", everything else to "document".
func NormalizeAttachment(att models.Attachment) models.Attachment {
	if att.Filename == "" {
		att.Filename = path.Base(att.URL)
	}
	if att.FileType == "" {
		att.FileType = ClassifyFileType(att.Filename)
	}
	return att
}

func ClassifyFileType(filename string) string {
	if imageExtensions[strings.ToLower(path.Ext(filename))] {
		return models.FileTypeImage
	}
	return models.FileTypeDocument
}

func messageView(m models.Message, sender models.UserSummary) models.MessageView {
	readBy := make([]string, len(m.ReadBy))
	for i, id := range m.ReadBy {
		readBy[i] = id.Hex()
	}
	attachments := m.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	return models.MessageView{
		ID:          m.ID.Hex(),
		ChatID:      m.ChatID.Hex(),
		Text:        m.Text,
		Sender:      sender,
		Attachments: attachments,
		ReadBy:      readBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
