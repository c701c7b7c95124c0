package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AadeshhhGavhane/c3/internal/model"
)

// OTPRepository handles one-time code persistence. MySQL has no native TTL,
// so expired rows are removed by PurgeExpired on a background sweep.
type OTPRepository struct {
	db *sql.DB
}

// NewOTPRepository creates a new OTPRepository.
func NewOTPRepository(db *sql.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// DeleteAllForEmail removes every code issued to email. Zero matches is not an error.
func (r *OTPRepository) DeleteAllForEmail(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE email = ?`, email); err != nil {
		return fmt.Errorf("delete otps: %w", err)
	}
	return nil
}

// Create inserts a new code, assigning its ID and creation time.
func (r *OTPRepository) Create(ctx context.Context, otp *model.OneTimeCode) error {
	query := `INSERT INTO otps (id, email, code, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`

	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, query, otp.ID, otp.Email, otp.Code, otp.ExpiresAt.UTC(), otp.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

// GetByEmailAndCode retrieves the newest code matching the exact (email, code) pair.
// Expired rows that have not been swept yet are still returned.
func (r *OTPRepository) GetByEmailAndCode(ctx context.Context, email, code string) (*model.OneTimeCode, error) {
	query := `SELECT id, email, code, expires_at, created_at FROM otps
		WHERE email = ? AND code = ? ORDER BY created_at DESC LIMIT 1`

	otp := &model.OneTimeCode{}
	err := r.db.QueryRowContext(ctx, query, email, code).Scan(
		&otp.ID, &otp.Email, &otp.Code, &otp.ExpiresAt, &otp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrOTPNotFound
		}
		return nil, fmt.Errorf("query otp: %w", err)
	}

	return otp, nil
}

// DeleteByID removes a single code. Deleting a missing code is not an error.
func (r *OTPRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// PurgeExpired deletes every code whose expiry is at or before now and
// reports how many rows were removed.
func (r *OTPRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge otps: %w", err)
	}
	return result.RowsAffected()
}
