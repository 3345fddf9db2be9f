package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/models"
	"github.com/mozik-app/mozik/internal/repositories"
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, email, passwordHash string) (int64, error)
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateFaceImage(ctx context.Context, id int64, filename string) error
	Delete(ctx context.Context, id int64) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// AuthService handles signup and login.
type AuthService struct {
	reader UserReader
	writer UserWriter
	hasher PasswordHasher
	audit  *AuditPublisher
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, hasher PasswordHasher, audit *AuditPublisher) *AuthService {
	return &AuthService{
		reader: reader,
		writer: writer,
		hasher: hasher,
		audit:  audit,
	}
}

// Register creates a new account. It does not log the user in.
func (svc *AuthService) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return ErrFieldsRequired
	}

	existing, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return err
	}
	if existing != nil {
		logger.Log.Infow("signup for existing email", "email", email)
		return ErrEmailAlreadyExists
	}

	hashed, err := svc.hasher.Hash(password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return err
	}

	userID, err := svc.writer.Save(ctx, email, hashed)
	if err != nil {
		// the unique constraint catches concurrent signups that slipped
		// past the lookup above
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return ErrEmailAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "err", err)
		return err
	}

	svc.audit.Publish(ctx, models.EventUserRegistered, userID, email, "")
	return nil
}

// Login authenticates a user and returns the user id. Unknown emails and
// wrong passwords produce the same error.
func (svc *AuthService) Login(ctx context.Context, email, password string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return 0, ErrFieldsRequired
	}

	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return 0, err
	}
	if user == nil || !svc.hasher.Verify(user.PasswordHash, password) {
		logger.Log.Infow("login failed", "email", email)
		return 0, ErrInvalidCredentials
	}

	svc.audit.Publish(ctx, models.EventUserLoggedIn, user.ID, user.Email, "")
	return user.ID, nil
}
