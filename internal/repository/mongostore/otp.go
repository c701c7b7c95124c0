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

type otpDocument struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	OTP       string    `bson:"otp"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

func newOTPDocument(c *model.OneTimeCode) otpDocument {
	return otpDocument{
		ID:        c.ID,
		Email:     c.Email,
		OTP:       c.Code,
		ExpiresAt: c.ExpiresAt.UTC(),
		CreatedAt: c.CreatedAt.UTC(),
	}
}

func (d otpDocument) toModel() *model.OneTimeCode {
	return &model.OneTimeCode{
		ID:        d.ID,
		Email:     d.Email,
		Code:      d.OTP,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
	}
}

// OTPRepository stores codes in the otps collection. The TTL monitor runs
// roughly once a minute, so expired documents can still be read briefly.
type OTPRepository struct {
	coll *mongo.Collection
}

func (r *OTPRepository) DeleteAllForEmail(ctx context.Context, email string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		return fmt.Errorf("delete otps: %w", err)
	}
	return nil
}

func (r *OTPRepository) Create(ctx context.Context, otp *model.OneTimeCode) error {
	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}

	if _, err := r.coll.InsertOne(ctx, newOTPDocument(otp)); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (r *OTPRepository) GetByEmailAndCode(ctx context.Context, email, code string) (*model.OneTimeCode, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var doc otpDocument
	if err := r.coll.FindOne(ctx, bson.M{"email": email, "otp": code}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrOTPNotFound
		}
		return nil, fmt.Errorf("query otp: %w", err)
	}
	return doc.toModel(), nil
}

func (r *OTPRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
