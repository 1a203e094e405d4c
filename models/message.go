package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	FileTypeImage    = "image"
	FileTypeDocument = "document"
	FileTypeOther    = "other"
)

type Attachment struct {
	URL      string `bson:"url" json:"url" binding:"required"`
	Filename string `bson:"filename" json:"filename"`
	FileType string `bson:"fileType" json:"fileType"`
	FileSize int64  `bson:"fileSize" json:"fileSize"`
}

type Message struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	ChatID      primitive.ObjectID   `bson:"chat"`
	SenderID    primitive.ObjectID   `bson:"sender"`
	Text        string               `bson:"text"`
	Attachments []Attachment         `bson:"attachments"`
	ReadBy      []primitive.ObjectID `bson:"readBy"`
	CreatedAt   primitive.DateTime   `bson:"createdAt"`
	UpdatedAt   primitive.DateTime   `bson:"updatedAt"`
}

// MessageView is the wire shape for a message. ChatID is always the hex id,
// no matter how the chat reference was stored.
type MessageView struct {
	ID          string             `json:"id"`
	ChatID      string             `json:"chatId"`
	Text        string             `json:"text"`
	Sender      UserSummary        `json:"sender"`
	Attachments []Attachment       `json:"attachments"`
	ReadBy      []string           `json:"readBy"`
	CreatedAt   primitive.DateTime `json:"createdAt"`
	UpdatedAt   primitive.DateTime `json:"updatedAt"`
}

// MessagePage is one page of backward history. NextCursor is empty once
// the beginning of the chat has been reached.
type MessagePage struct {
	Messages   []MessageView `json:"messages"`
	NextCursor string        `json:"nextCursor"`
}
