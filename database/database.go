package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo bundles the client and the collections the app works with.
type Mongo struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Chats    *mongo.Collection
	Messages *mongo.Collection
	PushSubs *mongo.Collection
}

func Connect(uri string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database("chatx")
	m := &Mongo{
		Client:   client,
		Users:    db.Collection("users"),
		Chats:    db.Collection("chats"),
		Messages: db.Collection("messages"),
		PushSubs: db.Collection("push_subscriptions"),
	}

	log.Println("Connected to MongoDB successfully")
	return m, nil
}

// EnsureIndexes creates the indexes the stores rely on. The unique
// membersKey index is what makes find-or-create of a direct chat safe
// under concurrent first-contact requests.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := m.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
	}); err != nil {
		return err
	}

	if _, err := m.Chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "membersKey", Value: 1}},
		Options: unique,
	}); err != nil {
		return err
	}

	if _, err := m.Messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return err
	}

	if _, err := m.PushSubs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	}); err != nil {
		return err
	}

	return nil
}

func (m *Mongo) Disconnect() error {
	if m == nil || m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
