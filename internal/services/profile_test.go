package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/mozik-app/mozik/internal/models"
	"github.com/mozik-app/mozik/internal/password"
	"github.com/mozik-app/mozik/internal/repositories"
	"github.com/mozik-app/mozik/internal/services"
)

type profileFixture struct {
	reader  *services.MockUserReader
	writer  *services.MockUserWriter
	history *services.MockJobHistoryReader
	hasher  *password.Hasher
	svc     *services.ProfileService
}

func newProfileFixture(t *testing.T, ctrl *gomock.Controller) *profileFixture {
	t.Helper()

	f := &profileFixture{
		reader:  services.NewMockUserReader(ctrl),
		writer:  services.NewMockUserWriter(ctrl),
		history: services.NewMockJobHistoryReader(ctrl),
		hasher:  password.New(bcrypt.MinCost),
	}
	f.svc = services.NewProfileService(f.reader, f.writer, f.history, f.hasher)
	return f
}

func (f *profileFixture) user(t *testing.T, pw string) *models.UserDB {
	t.Helper()

	hash, err := f.hasher.Hash(pw)
	assert.NoError(t, err)
	return &models.UserDB{ID: 4, Email: "a@x.com", PasswordHash: hash}
}

func TestProfileService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("found", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "pw")

		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)

		got, err := f.svc.Get(context.Background(), 4)
		assert.NoError(t, err)
		assert.Equal(t, u, got)
	})

	t.Run("missing", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)

		f.reader.EXPECT().GetByID(gomock.Any(), int64(9)).Return(nil, nil)

		_, err := f.svc.Get(context.Background(), 9)
		assert.ErrorIs(t, err, services.ErrUserNotFound)
	})
}

func TestProfileService_ChangeEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success re-fetches profile", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "pw")
		updated := *u
		updated.Email = "new@x.com"

		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)
		f.writer.EXPECT().UpdateEmail(gomock.Any(), int64(4), "new@x.com").Return(nil)
		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(&updated, nil)

		got, err := f.svc.ChangeEmail(context.Background(), 4, "new@x.com", "pw")
		assert.NoError(t, err)
		assert.Equal(t, "new@x.com", got.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "pw")

		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)

		_, err := f.svc.ChangeEmail(context.Background(), 4, "new@x.com", "bad")
		assert.ErrorIs(t, err, services.ErrWrongPassword)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "pw")

		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)
		f.writer.EXPECT().UpdateEmail(gomock.Any(), int64(4), "taken@x.com").
			Return(repositories.ErrDuplicateEmail)

		_, err := f.svc.ChangeEmail(context.Background(), 4, "taken@x.com", "pw")
		assert.ErrorIs(t, err, services.ErrEmailAlreadyExists)
	})

	t.Run("empty email", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)

		_, err := f.svc.ChangeEmail(context.Background(), 4, "  ", "pw")
		assert.ErrorIs(t, err, services.ErrFieldsRequired)
	})
}

func TestProfileService_ChangePassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "old")

		var storedHash string
		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)
		f.writer.EXPECT().
			UpdatePassword(gomock.Any(), int64(4), gomock.Any()).
			DoAndReturn(func(ctx context.Context, id int64, hash string) error {
				storedHash = hash
				return nil
			})

		assert.NoError(t, f.svc.ChangePassword(context.Background(), 4, "old", "new", "new"))
		assert.True(t, f.hasher.Verify(storedHash, "new"))
	})

	t.Run("mismatch", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)

		err := f.svc.ChangePassword(context.Background(), 4, "old", "new1", "new2")
		assert.ErrorIs(t, err, services.ErrPasswordMismatch)
	})

	t.Run("empty new password", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)

		err := f.svc.ChangePassword(context.Background(), 4, "old", " ", " ")
		assert.ErrorIs(t, err, services.ErrFieldsRequired)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "old")

		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)

		err := f.svc.ChangePassword(context.Background(), 4, "bad", "new", "new")
		assert.ErrorIs(t, err, services.ErrWrongPassword)
	})
}

func TestProfileService_RegisterFace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "pw")
		face := "face_4_1700000000.png"
		updated := *u
		updated.FaceImage = &face

		f.writer.EXPECT().UpdateFaceImage(gomock.Any(), int64(4), face).Return(nil)
		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(&updated, nil)

		got, err := f.svc.RegisterFace(context.Background(), 4, face)
		assert.NoError(t, err)
		assert.Equal(t, face, *got.FaceImage)
	})

	t.Run("missing filename", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)

		_, err := f.svc.RegisterFace(context.Background(), 4, "")
		assert.ErrorIs(t, err, services.ErrNoFile)
	})
}

func TestProfileService_DeleteAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "pw")

		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)
		f.writer.EXPECT().Delete(gomock.Any(), int64(4)).Return(nil)

		assert.NoError(t, f.svc.DeleteAccount(context.Background(), 4, "pw"))
	})

	t.Run("wrong password leaves the account alone", func(t *testing.T) {
		f := newProfileFixture(t, ctrl)
		u := f.user(t, "pw")

		f.reader.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)

		err := f.svc.DeleteAccount(context.Background(), 4, "bad")
		assert.ErrorIs(t, err, services.ErrWrongPassword)
	})
}

func TestProfileService_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newProfileFixture(t, ctrl)
	jobs := []models.JobHistoryDB{
		{ID: 2, UserID: 4, OriginalFilename: "cat.png", OutputFilename: "mosaic_cat.png"},
		{ID: 1, UserID: 4, OriginalFilename: "dog.png", OutputFilename: "mosaic_dog.png"},
	}

	f.history.EXPECT().ListByUserID(gomock.Any(), int64(4)).Return(jobs, nil)

	got, err := f.svc.History(context.Background(), 4)
	assert.NoError(t, err)
	assert.Equal(t, jobs, got)
}

func TestProfileService_HistoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newProfileFixture(t, ctrl)
	f.history.EXPECT().ListByUserID(gomock.Any(), int64(4)).Return(nil, errors.New("db error"))

	_, err := f.svc.History(context.Background(), 4)
	assert.EqualError(t, err, "db error")
}
