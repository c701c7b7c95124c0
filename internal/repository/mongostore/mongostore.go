// Package mongostore implements the Credential and OTP stores on MongoDB.
// OTP expiry uses a TTL index, so the server purges expired codes itself.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	otpsCollection  = "otps"
)

// Store owns the client and vends repositories bound to one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

// EnsureIndexes creates the unique email index on users and the TTL index on otps.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_users_email"),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = s.db.Collection(otpsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "otp", Value: 1}},
			Options: options.Index().SetName("idx_otps_email_otp"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_otps_expires_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("create otps indexes: %w", err)
	}

	return nil
}

// Users returns the user repository.
func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection)}
}

// OTPs returns the one-time code repository.
func (s *Store) OTPs() *OTPRepository {
	return &OTPRepository{coll: s.db.Collection(otpsCollection)}
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
