package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"chatx/database"
	"chatx/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const fallbackAvatar = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"

type Users struct {
	db *database.Mongo
}

func NewUsers(db *database.Mongo) *Users {
	return &Users{db: db}
}

func (s *Users) Register(ctx context.Context, username, email, password, avatar string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email, and password are required", ErrValidation)
	}

	count, err := s.db.Users.CountDocuments(ctx, bson.M{
		"$or": bson.A{bson.M{"email": email}, bson.M{"username": username}},
	})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: a user with that email or username already exists", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		Avatar:       avatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.db.Users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: a user with that email or username already exists", ErrConflict)
		}
		return nil, err
	}

	return &user, nil
}

func (s *Users) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}

	return &user, nil
}

func (s *Users) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := retryTransient(ctx, func() error {
		return s.db.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	})
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByIdentifier resolves a user by email or username. Usernames match
// case-insensitively, emails are compared lowercased.
func (s *Users) ByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrNotFound
	}
	normalized := strings.ToLower(identifier)

	var user models.User
	err := s.db.Users.FindOne(ctx, bson.M{
		"$or": bson.A{
			bson.M{"email": normalized},
			bson.M{"username": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(normalized) + "$", Options: "i"}},
		},
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// summaries batch-fetches member profiles. Missing users come back as a
// placeholder so a deleted account never breaks a chat payload.
func (s *Users) summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := s.db.Users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}

	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = models.UserSummary{ID: id.Hex(), Username: "Unknown", Avatar: fallbackAvatar}
		}
	}
	return out, nil
}
