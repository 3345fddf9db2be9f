package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/models"
	"github.com/mozik-app/mozik/internal/repositories"
)

// JobHistoryReader defines read operations for job history.
type JobHistoryReader interface {
	ListByUserID(ctx context.Context, userID int64) ([]models.JobHistoryDB, error)
}

// ProfileService handles the session-gated account operations. Every
// mutation verifies the current password, applies one change, and
// re-fetches the profile.
type ProfileService struct {
	reader  UserReader
	writer  UserWriter
	history JobHistoryReader
	hasher  PasswordHasher
}

// NewProfileService creates a new ProfileService.
func NewProfileService(reader UserReader, writer UserWriter, history JobHistoryReader, hasher PasswordHasher) *ProfileService {
	return &ProfileService{
		reader:  reader,
		writer:  writer,
		history: history,
		hasher:  hasher,
	}
}

// Get returns the user's profile.
func (svc *ProfileService) Get(ctx context.Context, userID int64) (*models.UserDB, error) {
	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// verify loads the user and checks the supplied password.
func (svc *ProfileService) verify(ctx context.Context, userID int64, password string) (*models.UserDB, error) {
	user, err := svc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !svc.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrWrongPassword
	}
	return user, nil
}

// ChangeEmail updates the email after verifying the password and returns
// the refreshed profile.
func (svc *ProfileService) ChangeEmail(ctx context.Context, userID int64, newEmail, password string) (*models.UserDB, error) {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" {
		return nil, ErrFieldsRequired
	}

	if _, err := svc.verify(ctx, userID, password); err != nil {
		return nil, err
	}

	if err := svc.writer.UpdateEmail(ctx, userID, newEmail); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		logger.Log.Errorw("failed to update email", "user_id", userID, "err", err)
		return nil, err
	}

	return svc.Get(ctx, userID)
}

// ChangePassword replaces the password after verifying the current one.
func (svc *ProfileService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword, confirmPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrFieldsRequired
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	if _, err := svc.verify(ctx, userID, currentPassword); err != nil {
		return err
	}

	hashed, err := svc.hasher.Hash(newPassword)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return err
	}

	return svc.writer.UpdatePassword(ctx, userID, hashed)
}

// RegisterFace stores the filename of the user's uploaded face image.
func (svc *ProfileService) RegisterFace(ctx context.Context, userID int64, filename string) (*models.UserDB, error) {
	if filename == "" {
		return nil, ErrNoFile
	}

	if err := svc.writer.UpdateFaceImage(ctx, userID, filename); err != nil {
		logger.Log.Errorw("failed to register face image", "user_id", userID, "err", err)
		return nil, err
	}

	return svc.Get(ctx, userID)
}

// DeleteAccount removes the account after verifying the password.
// Dependent rows cascade at the store.
func (svc *ProfileService) DeleteAccount(ctx context.Context, userID int64, password string) error {
	if _, err := svc.verify(ctx, userID, password); err != nil {
		return err
	}

	if err := svc.writer.Delete(ctx, userID); err != nil {
		logger.Log.Errorw("failed to delete account", "user_id", userID, "err", err)
		return err
	}

	return nil
}

// History returns the user's processed uploads, newest first.
func (svc *ProfileService) History(ctx context.Context, userID int64) ([]models.JobHistoryDB, error) {
	return svc.history.ListByUserID(ctx, userID)
}
