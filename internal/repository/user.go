package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

const userColumns = `uuid, uid, username, nickname, email, title, slogan, gender, password_hash, salt,
		       token, token_expires, last_active_at, authority, allow_comment, is_deleted, created_at`

const uidSeed = `SELECT GREATEST(COALESCE(MAX(uid), 0) + 1, 10000) FROM users`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user with the next uid
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	uid, err := nextValue(ctx, tx, counterUID, uidSeed)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (uuid, uid, username, nickname, email, title, slogan, gender, password_hash, salt,
		                   authority, allow_comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.ExecContext(ctx, query,
		u.UUID, uid, u.Username, u.Nickname, u.Email, u.Title, u.Slogan, u.Gender,
		u.PasswordHash, u.Salt, u.Authority, u.AllowComment, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrUsernameExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	u.UID = uid
	return nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` AND NOT is_deleted`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetByUUID retrieves a user by opaque id
func (r *userRepository) GetByUUID(ctx context.Context, uuid string) (*model.User, error) {
	return r.getOne(ctx, `uuid = $1`, uuid)
}

// GetByUID retrieves a user by legacy numeric id
func (r *userRepository) GetByUID(ctx context.Context, uid int64) (*model.User, error) {
	return r.getOne(ctx, `uid = $1`, uid)
}

// GetByUsername retrieves a user by username, ignoring case
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `LOWER(username) = LOWER($1)`, username)
}

// ExistsByUsername checks if a username is already taken, ignoring case
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) AND NOT is_deleted)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) UpdateSession(ctx context.Context, uuid, token string, expires, lastActive time.Time) error {
	query := `UPDATE users SET token = $1, token_expires = $2, last_active_at = $3 WHERE uuid = $4`
	return r.execOne(ctx, "update session", query, token, expires, lastActive, uuid)
}

func (r *userRepository) ClearSession(ctx context.Context, uuid string) error {
	query := `UPDATE users SET token = '', token_expires = NULL WHERE uuid = $1`
	return r.execOne(ctx, "clear session", query, uuid)
}

func (r *userRepository) UpdateCredentials(ctx context.Context, uuid, username, salt, passwordHash string) error {
	query := `
		UPDATE users
		SET username = $1, salt = $2, password_hash = $3, token = '', token_expires = NULL
		WHERE uuid = $4
	`
	_, err := r.db.ExecContext(ctx, query, username, salt, passwordHash, uuid)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrUsernameExists
		}
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET nickname = $1, email = $2, title = $3, slogan = $4, gender = $5, allow_comment = $6
		WHERE uuid = $7
	`
	return r.execOne(ctx, "update profile", query,
		u.Nickname, u.Email, u.Title, u.Slogan, u.Gender, u.AllowComment, u.UUID)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE NOT is_deleted`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *userRepository) First(ctx context.Context) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY uid ASC LIMIT 1`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get first user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
