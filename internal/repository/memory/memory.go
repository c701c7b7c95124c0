// Package memory provides in-process Credential and OTP stores. Data does not
// survive a restart; it backs STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AadeshhhGavhane/c3/internal/model"
)

// UserRepository is a mutex-guarded user store keyed by ID with an email index.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]string
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return model.ErrDuplicateEmail
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	return nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *stored
	return &u, nil
}

func (r *UserRepository) SetVerified(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	stored := r.byID[id]
	stored.IsVerified = true
	stored.UpdatedAt = time.Now().UTC()

	u := *stored
	return &u, nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return model.ErrUserNotFound
	}
	stored := r.byID[id]
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a user. It exists for out-of-band removal (admin tooling, tests).
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return model.ErrUserNotFound
	}
	delete(r.byEmail, stored.Email)
	delete(r.byID, id)
	return nil
}

// OTPRepository is a mutex-guarded one-time code store.
type OTPRepository struct {
	mu    sync.Mutex
	codes map[string]*model.OneTimeCode
}

// NewOTPRepository creates an empty OTPRepository.
func NewOTPRepository() *OTPRepository {
	return &OTPRepository{codes: make(map[string]*model.OneTimeCode)}
}

func (r *OTPRepository) DeleteAllForEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.codes {
		if c.Email == email {
			delete(r.codes, id)
		}
	}
	return nil
}

func (r *OTPRepository) Create(_ context.Context, otp *model.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}

	stored := *otp
	r.codes[stored.ID] = &stored
	return nil
}

func (r *OTPRepository) GetByEmailAndCode(_ context.Context, email, code string) (*model.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newest *model.OneTimeCode
	for _, c := range r.codes {
		if c.Email != email || c.Code != code {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) {
			newest = c
		}
	}
	if newest == nil {
		return nil, model.ErrOTPNotFound
	}

	found := *newest
	return &found, nil
}

func (r *OTPRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.codes, id)
	return nil
}

// PurgeExpired deletes codes whose expiry is at or before now.
func (r *OTPRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int64
	for id, c := range r.codes {
		if !c.ExpiresAt.After(now) {
			delete(r.codes, id)
			purged++
		}
	}
	return purged, nil
}

// Count returns the number of stored codes for email, expired or not.
func (r *OTPRepository) Count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.codes {
		if c.Email == email {
			n++
		}
	}
	return n
}
