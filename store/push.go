package store

import (
	"context"

	"chatx/database"
	"chatx/models"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PushSubs struct {
	db *database.Mongo
}

func NewPushSubs(db *database.Mongo) *PushSubs {
	return &PushSubs{db: db}
}

// Save upserts the user's push subscription; one subscription per user.
func (s *PushSubs) Save(ctx context.Context, userID primitive.ObjectID, sub webpush.Subscription) error {
	_, err := s.db.PushSubs.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"userId": userID, "sub": sub}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *PushSubs) ByUser(ctx context.Context, userID primitive.ObjectID) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	err := s.db.PushSubs.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
