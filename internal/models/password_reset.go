package models

import "time"

// PasswordResetDB represents a password reset token record in the database.
// A token is redeemable iff Used is false and the current time is before
// ExpiresAt. Rows are never deleted; redemption flips Used to true.
type PasswordResetDB struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Email of the owning user, populated by joined reads for display only.
	Email string `json:"email,omitempty" db:"email"`
}
