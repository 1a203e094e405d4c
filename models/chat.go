package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Chat struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Members     []primitive.ObjectID `bson:"members"`
	MembersKey  string               `bson:"membersKey"`
	LastMessage primitive.ObjectID   `bson:"lastMessage,omitempty"`
	CreatedAt   primitive.DateTime   `bson:"createdAt"`
	UpdatedAt   primitive.DateTime   `bson:"updatedAt"`
}

// ChatView is the hydrated chat returned to clients: member profiles,
// last message and the viewer's unread count.
type ChatView struct {
	ID          string             `json:"id"`
	Members     []UserSummary      `json:"members"`
	LastMessage *MessageView       `json:"lastMessage"`
	UnreadCount int64              `json:"unreadCount"`
	CreatedAt   primitive.DateTime `json:"createdAt"`
	UpdatedAt   primitive.DateTime `json:"updatedAt"`
}
