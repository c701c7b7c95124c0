package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AadeshhhGavhane/c3/internal/model"
)

type userDocument struct {
	ID         string    `bson:"_id"`
	Email      string    `bson:"email"`
	Name       string    `bson:"name"`
	Password   string    `bson:"password"`
	IsVerified bool      `bson:"isVerified"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func newUserDocument(u *model.User) userDocument {
	return userDocument{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Password:   u.PasswordHash,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func (d userDocument) toModel() *model.User {
	return &model.User{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.Password,
		IsVerified:   d.IsVerified,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// UserRepository stores users in the users collection.
type UserRepository struct {
	coll *mongo.Collection
}

// Create inserts a new user. The unique email index rejects duplicates atomically.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, newUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// SetVerified flips isVerified and returns the updated document.
func (r *UserRepository) SetVerified(ctx context.Context, email string) (*model.User, error) {
	update := bson.M{"$set": bson.M{"isVerified": true, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("verify user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	update := bson.M{"$set": bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()}}

	result, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if result.MatchedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return doc.toModel(), nil
}
