package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Avatar       string             `bson:"avatar" json:"avatar"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt    primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt    primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the member shape embedded in chat and message responses.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}
