package services

import (
	"context"
	"strings"
	"time"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/models"
	"github.com/mozik-app/mozik/internal/token"
)

// ResetTokenTTL is how long an issued token stays redeemable.
const ResetTokenTTL = time.Hour

// TokenState classifies a reset token on inspection.
type TokenState int

const (
	TokenInvalid TokenState = iota // no matching record
	TokenExpired                   // used, or past its expiry
	TokenValid
)

// PasswordResetReader defines read operations for reset tokens.
type PasswordResetReader interface {
	GetByToken(ctx context.Context, token string) (*models.PasswordResetDB, error)
}

// PasswordResetWriter defines write operations for reset tokens.
type PasswordResetWriter interface {
	Save(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	Redeem(ctx context.Context, token, passwordHash string, now time.Time) (bool, error)
}

// ResetMailer delivers the reset link to the user.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// PasswordResetService issues, inspects, and redeems reset tokens.
type PasswordResetService struct {
	users  UserReader
	reader PasswordResetReader
	writer PasswordResetWriter
	hasher PasswordHasher
	mailer ResetMailer
	audit  *AuditPublisher
	now    func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService. now is the
// clock used for expiry decisions.
func NewPasswordResetService(
	users UserReader,
	reader PasswordResetReader,
	writer PasswordResetWriter,
	hasher PasswordHasher,
	mailer ResetMailer,
	audit *AuditPublisher,
	now func() time.Time,
) *PasswordResetService {
	return &PasswordResetService{
		users:  users,
		reader: reader,
		writer: writer,
		hasher: hasher,
		mailer: mailer,
		audit:  audit,
		now:    now,
	}
}

// RequestReset issues a token for the account and mails a reset link.
// Unknown emails succeed silently so callers cannot enumerate accounts.
// A mail delivery failure is logged but does not fail the request; the
// token already exists and the user can ask again.
func (svc *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrFieldsRequired
	}

	user, err := svc.users.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to look up user for reset", "err", err)
		return err
	}
	if user == nil {
		logger.Log.Infow("reset requested for unknown email", "email", email)
		return nil
	}

	tok, err := token.Generate()
	if err != nil {
		logger.Log.Errorw("failed to generate reset token", "err", err)
		return err
	}

	expiresAt := svc.now().Add(ResetTokenTTL)
	if err := svc.writer.Save(ctx, user.ID, tok, expiresAt); err != nil {
		logger.Log.Errorw("failed to save reset token", "user_id", user.ID, "err", err)
		return err
	}

	if err := svc.mailer.SendPasswordReset(ctx, user.Email, tok); err != nil {
		logger.Log.Errorw("failed to send reset email", "user_id", user.ID, "err", err)
	}

	return nil
}

// InspectToken classifies the token and returns the owning user's email for
// display when the token is valid. The email must never be used for
// authorization.
func (svc *PasswordResetService) InspectToken(ctx context.Context, tok string) (TokenState, string, error) {
	rec, err := svc.reader.GetByToken(ctx, tok)
	if err != nil {
		return TokenInvalid, "", err
	}
	if rec == nil {
		return TokenInvalid, "", nil
	}
	if rec.Used || !svc.now().Before(rec.ExpiresAt) {
		return TokenExpired, "", nil
	}
	return TokenValid, rec.Email, nil
}

// Redeem consumes the token and sets the new password. The token and the
// password hash change in one committed unit; a token that expired or was
// consumed between page render and submission fails here.
func (svc *PasswordResetService) Redeem(ctx context.Context, tok, newPassword, confirmPassword string) error {
	state, _, err := svc.InspectToken(ctx, tok)
	if err != nil {
		return err
	}
	switch state {
	case TokenInvalid:
		return ErrInvalidToken
	case TokenExpired:
		return ErrTokenExpired
	}

	if strings.TrimSpace(newPassword) == "" {
		return ErrFieldsRequired
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	hashed, err := svc.hasher.Hash(newPassword)
	if err != nil {
		logger.Log.Errorw("failed to hash new password", "err", err)
		return err
	}

	ok, err := svc.writer.Redeem(ctx, tok, hashed, svc.now())
	if err != nil {
		return err
	}
	if !ok {
		// lost the race against a concurrent redemption or the clock
		return ErrTokenExpired
	}

	svc.audit.Publish(ctx, models.EventPasswordReset, 0, "", "token redeemed")
	return nil
}
