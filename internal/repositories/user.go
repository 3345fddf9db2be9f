package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/models"
)

type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// GetByEmail returns the user with the given email, or nil if none exists.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	const query = `
		SELECT id, username, email, password_hash, face_image, created_at
		FROM users
		WHERE email = $1
		LIMIT 1
	`

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, email)

	logger.Log.Debugw("user read",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{email},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByID returns the user with the given id, or nil if none exists.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.UserDB, error) {
	const query = `
		SELECT id, username, email, password_hash, face_image, created_at
		FROM users
		WHERE id = $1
		LIMIT 1
	`

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, id)

	logger.Log.Debugw("user read",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a new user and returns the store-assigned id. A duplicate
// email surfaces as ErrDuplicateEmail via the unique constraint, which
// closes the check-then-insert race at the store level.
func (r *UserWriteRepository) Save(ctx context.Context, email, passwordHash string) (int64, error) {
	const query = `
		INSERT INTO users (email, password_hash, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`

	var id int64
	err := r.db.GetContext(ctx, &id, query, email, passwordHash)

	logger.Log.Infow("user insert",
		"query", strings.Join(strings.Fields(query), " "),
		"email", email,
		"error", err,
	)

	if isUniqueViolation(err) {
		return 0, ErrDuplicateEmail
	}
	if err != nil {
		return 0, err
	}

	return id, nil
}

// UpdateEmail changes the user's email address.
func (r *UserWriteRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	const query = `UPDATE users SET email = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, email, id)

	logger.Log.Infow("user email update", "user_id", id, "error", err)

	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// UpdatePassword replaces the user's password hash.
func (r *UserWriteRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, passwordHash, id)

	logger.Log.Infow("user password update", "user_id", id, "error", err)

	return err
}

// UpdateFaceImage stores the filename of the user's registered face image.
func (r *UserWriteRepository) UpdateFaceImage(ctx context.Context, id int64, filename string) error {
	const query = `UPDATE users SET face_image = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, filename, id)

	logger.Log.Infow("user face image update", "user_id", id, "error", err)

	return err
}

// Delete removes the user row. Dependent reset tokens and job history rows
// cascade at the store level.
func (r *UserWriteRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)

	logger.Log.Infow("user delete", "user_id", id, "error", err)

	return err
}
