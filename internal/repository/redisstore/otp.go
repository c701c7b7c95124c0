// Package redisstore keeps one-time codes in Redis, relying on key expiry
// for automatic removal.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AadeshhhGavhane/c3/internal/model"
)

// minTTL keeps a record written right at its expiry readable long enough
// for the caller to observe and reject it.
const minTTL = time.Second

type record struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// OTPRepository stores the single live code of an email under otp:email:<email>
// and an id index under otp:id:<id>. Both keys share the code's expiry.
type OTPRepository struct {
	client *redis.Client
}

// NewOTPRepository creates an OTPRepository on the given client.
func NewOTPRepository(client *redis.Client) *OTPRepository {
	return &OTPRepository{client: client}
}

// Connect parses a redis:// URL and verifies the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func emailKey(email string) string { return "otp:email:" + email }
func idKey(id string) string       { return "otp:id:" + id }

func (r *OTPRepository) DeleteAllForEmail(ctx context.Context, email string) error {
	rec, err := r.load(ctx, email)
	if errors.Is(err, model.ErrOTPNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, emailKey(email), idKey(rec.ID)).Err(); err != nil {
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

	payload, err := json.Marshal(record{
		ID:        otp.ID,
		Email:     otp.Email,
		Code:      otp.Code,
		ExpiresAt: otp.ExpiresAt.UTC(),
		CreatedAt: otp.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode otp: %w", err)
	}

	ttl := max(time.Until(otp.ExpiresAt), minTTL)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, emailKey(otp.Email), payload, ttl)
		pipe.Set(ctx, idKey(otp.ID), otp.Email, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (r *OTPRepository) GetByEmailAndCode(ctx context.Context, email, code string) (*model.OneTimeCode, error) {
	rec, err := r.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if rec.Code != code {
		return nil, model.ErrOTPNotFound
	}

	return &model.OneTimeCode{
		ID:        rec.ID,
		Email:     rec.Email,
		Code:      rec.Code,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// DeleteByID removes the code with the given id if it is still the live code
// for its email. A newer code issued in the meantime is left alone.
func (r *OTPRepository) DeleteByID(ctx context.Context, id string) error {
	email, err := r.client.Get(ctx, idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup otp id: %w", err)
	}

	keys := []string{idKey(id)}
	rec, err := r.load(ctx, email)
	switch {
	case err == nil && rec.ID == id:
		keys = append(keys, emailKey(email))
	case err != nil && !errors.Is(err, model.ErrOTPNotFound):
		return err
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func (r *OTPRepository) load(ctx context.Context, email string) (*record, error) {
	raw, err := r.client.Get(ctx, emailKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrOTPNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query otp: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode otp: %w", err)
	}
	return &rec, nil
}
