package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/models"
)

type PasswordResetReadRepository struct {
	db *sqlx.DB
}

func NewPasswordResetReadRepository(db *sqlx.DB) *PasswordResetReadRepository {
	return &PasswordResetReadRepository{db: db}
}

// GetByToken returns the most recently issued record matching the token,
// joined with the owning user's email, or nil if no row matches. Ties on
// duplicate token strings break toward the highest id.
func (r *PasswordResetReadRepository) GetByToken(ctx context.Context, token string) (*models.PasswordResetDB, error) {
	const query = `
		SELECT pr.id, pr.user_id, pr.token, pr.expires_at, pr.used, pr.created_at, u.email
		FROM password_resets pr
		JOIN users u ON u.id = pr.user_id
		WHERE pr.token = $1
		ORDER BY pr.id DESC
		LIMIT 1
	`

	var rec models.PasswordResetDB
	err := r.db.GetContext(ctx, &rec, query, token)

	logger.Log.Debugw("password reset read",
		"query", strings.Join(strings.Fields(query), " "),
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

type PasswordResetWriteRepository struct {
	db *sqlx.DB
}

func NewPasswordResetWriteRepository(db *sqlx.DB) *PasswordResetWriteRepository {
	return &PasswordResetWriteRepository{db: db}
}

// Save inserts a fresh unused token for the user.
func (r *PasswordResetWriteRepository) Save(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const query = `
		INSERT INTO password_resets (user_id, token, expires_at, used, created_at)
		VALUES ($1, $2, $3, FALSE, NOW())
	`

	_, err := r.db.ExecContext(ctx, query, userID, token, expiresAt)

	logger.Log.Infow("password reset insert", "user_id", userID, "error", err)

	return err
}

// Redeem consumes the token and replaces the owning user's password hash in
// one transaction. The conditional UPDATE checks used and expiry at the
// store, so a token flips to used at most once even under concurrent
// redemption. Returns false when the token was not redeemable.
func (r *PasswordResetWriteRepository) Redeem(ctx context.Context, token, passwordHash string, now time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		logger.Log.Errorw("failed to begin redeem transaction", "error", err)
		return false, err
	}

	const consume = `
		UPDATE password_resets
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > $2
		RETURNING user_id
	`

	var userID int64
	err = tx.GetContext(ctx, &userID, consume, token, now)
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		return false, nil
	}
	if err != nil {
		tx.Rollback()
		logger.Log.Errorw("failed to consume reset token", "error", err)
		return false, err
	}

	const setPassword = `UPDATE users SET password_hash = $1 WHERE id = $2`

	if _, err := tx.ExecContext(ctx, setPassword, passwordHash, userID); err != nil {
		tx.Rollback()
		logger.Log.Errorw("failed to update password during redeem", "user_id", userID, "error", err)
		return false, err
	}

	if err := tx.Commit(); err != nil {
		logger.Log.Errorw("failed to commit redeem transaction", "user_id", userID, "error", err)
		return false, err
	}

	logger.Log.Infow("password reset redeemed", "user_id", userID)
	return true, nil
}
