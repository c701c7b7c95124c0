package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/AadeshhhGavhane/c3/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

const userColumns = `id, email, name, password_hash, is_verified, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user, assigning its ID and timestamps.
// The unique email index makes concurrent creates for one email fail with ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, name, password_hash, is_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.IsVerified, now, now,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByEmail retrieves a user by their (already lowercased) email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(ctx, query, email)
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(ctx, query, id)
}

// SetVerified marks the user as verified and returns the updated record.
// Verification never reverts, so repeating it is harmless.
func (r *UserRepository) SetVerified(ctx context.Context, email string) (*model.User, error) {
	query := `UPDATE users SET is_verified = TRUE WHERE email = ?`

	// MySQL reports zero affected rows for an already verified user, so
	// existence is decided by the read that follows.
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return nil, fmt.Errorf("verify user: %w", err)
	}

	return r.GetByEmail(ctx, email)
}

// UpdatePassword replaces the user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE email = ?`

	result, err := r.db.ExecContext(ctx, query, passwordHash, email)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
