package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/mozik-app/mozik/internal/models"
	"github.com/mozik-app/mozik/internal/password"
	"github.com/mozik-app/mozik/internal/services"
)

type resetFixture struct {
	users  *services.MockUserReader
	reader *services.MockPasswordResetReader
	writer *services.MockPasswordResetWriter
	mailer *services.MockResetMailer
	hasher *password.Hasher
	svc    *services.PasswordResetService
	now    time.Time
}

func newResetFixture(t *testing.T, ctrl *gomock.Controller) *resetFixture {
	t.Helper()

	f := &resetFixture{
		users:  services.NewMockUserReader(ctrl),
		reader: services.NewMockPasswordResetReader(ctrl),
		writer: services.NewMockPasswordResetWriter(ctrl),
		mailer: services.NewMockResetMailer(ctrl),
		hasher: password.New(bcrypt.MinCost),
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = services.NewPasswordResetService(
		f.users, f.reader, f.writer, f.hasher, f.mailer,
		services.NewAuditPublisher(nil),
		func() time.Time { return f.now },
	)
	return f
}

func TestPasswordResetService_RequestReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := &models.UserDB{ID: 4, Email: "a@x.com"}

	t.Run("issues token with one hour expiry and mails it", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		var savedToken, mailedToken string
		f.users.EXPECT().GetByEmail(gomock.Any(), "a@x.com").Return(user, nil)
		f.writer.EXPECT().
			Save(gomock.Any(), int64(4), gomock.Any(), f.now.Add(time.Hour)).
			DoAndReturn(func(ctx context.Context, userID int64, tok string, expiresAt time.Time) error {
				savedToken = tok
				return nil
			})
		f.mailer.EXPECT().
			SendPasswordReset(gomock.Any(), "a@x.com", gomock.Any()).
			DoAndReturn(func(ctx context.Context, to, tok string) error {
				mailedToken = tok
				return nil
			})

		assert.NoError(t, f.svc.RequestReset(context.Background(), "a@x.com"))
		assert.NotEmpty(t, savedToken)
		assert.Equal(t, savedToken, mailedToken)
	})

	t.Run("unknown email succeeds without side effects", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		f.users.EXPECT().GetByEmail(gomock.Any(), "ghost@x.com").Return(nil, nil)

		assert.NoError(t, f.svc.RequestReset(context.Background(), "ghost@x.com"))
	})

	t.Run("empty email is a validation error", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		err := f.svc.RequestReset(context.Background(), "   ")
		assert.ErrorIs(t, err, services.ErrFieldsRequired)
	})

	t.Run("store failure is a genuine error", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		f.users.EXPECT().GetByEmail(gomock.Any(), "a@x.com").Return(user, nil)
		f.writer.EXPECT().
			Save(gomock.Any(), int64(4), gomock.Any(), gomock.Any()).
			Return(errors.New("insert failed"))

		err := f.svc.RequestReset(context.Background(), "a@x.com")
		assert.EqualError(t, err, "insert failed")
	})

	t.Run("mail failure does not fail the request", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		f.users.EXPECT().GetByEmail(gomock.Any(), "a@x.com").Return(user, nil)
		f.writer.EXPECT().Save(gomock.Any(), int64(4), gomock.Any(), gomock.Any()).Return(nil)
		f.mailer.EXPECT().
			SendPasswordReset(gomock.Any(), "a@x.com", gomock.Any()).
			Return(errors.New("smtp down"))

		assert.NoError(t, f.svc.RequestReset(context.Background(), "a@x.com"))
	})
}

func TestPasswordResetService_InspectToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		rec       *models.PasswordResetDB
		readerErr error
		wantState services.TokenState
		wantEmail string
		wantErr   bool
	}{
		{
			name:      "no matching row",
			rec:       nil,
			wantState: services.TokenInvalid,
		},
		{
			name: "valid token",
			rec: &models.PasswordResetDB{
				UserID: 4, Token: "tok", ExpiresAt: now.Add(30 * time.Minute), Email: "a@x.com",
			},
			wantState: services.TokenValid,
			wantEmail: "a@x.com",
		},
		{
			name: "used token is expired even inside the window",
			rec: &models.PasswordResetDB{
				UserID: 4, Token: "tok", ExpiresAt: now.Add(30 * time.Minute), Used: true, Email: "a@x.com",
			},
			wantState: services.TokenExpired,
		},
		{
			name: "past expiry regardless of used flag",
			rec: &models.PasswordResetDB{
				UserID: 4, Token: "tok", ExpiresAt: now.Add(-time.Second), Email: "a@x.com",
			},
			wantState: services.TokenExpired,
		},
		{
			name: "expiry boundary counts as expired",
			rec: &models.PasswordResetDB{
				UserID: 4, Token: "tok", ExpiresAt: now, Email: "a@x.com",
			},
			wantState: services.TokenExpired,
		},
		{
			name:      "reader error",
			readerErr: errors.New("db error"),
			wantState: services.TokenInvalid,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResetFixture(t, ctrl)
			f.now = now

			f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(tt.rec, tt.readerErr)

			state, email, err := f.svc.InspectToken(context.Background(), "tok")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.wantEmail, email)
		})
	}
}

func TestPasswordResetService_Redeem(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	validRec := func(now time.Time) *models.PasswordResetDB {
		return &models.PasswordResetDB{
			UserID: 4, Token: "tok", ExpiresAt: now.Add(30 * time.Minute), Email: "a@x.com",
		}
	}

	t.Run("success stores a verifying hash", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		var storedHash string
		f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(validRec(f.now), nil)
		f.writer.EXPECT().
			Redeem(gomock.Any(), "tok", gomock.Any(), f.now).
			DoAndReturn(func(ctx context.Context, tok, hash string, now time.Time) (bool, error) {
				storedHash = hash
				return true, nil
			})

		assert.NoError(t, f.svc.Redeem(context.Background(), "tok", "newpw", "newpw"))
		assert.True(t, f.hasher.Verify(storedHash, "newpw"))
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(nil, nil)

		err := f.svc.Redeem(context.Background(), "tok", "newpw", "newpw")
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("used token", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		rec := validRec(f.now)
		rec.Used = true
		f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(rec, nil)

		err := f.svc.Redeem(context.Background(), "tok", "newpw", "newpw")
		assert.ErrorIs(t, err, services.ErrTokenExpired)
	})

	t.Run("mismatched confirmation performs no writes", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(validRec(f.now), nil)
		// no writer expectation: a mismatch must leave the token untouched

		err := f.svc.Redeem(context.Background(), "tok", "p1", "p2")
		assert.ErrorIs(t, err, services.ErrPasswordMismatch)
	})

	t.Run("empty new password", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(validRec(f.now), nil)

		err := f.svc.Redeem(context.Background(), "tok", "", "")
		assert.ErrorIs(t, err, services.ErrFieldsRequired)
	})

	t.Run("lost race against concurrent redemption", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(validRec(f.now), nil)
		f.writer.EXPECT().
			Redeem(gomock.Any(), "tok", gomock.Any(), f.now).
			Return(false, nil)

		err := f.svc.Redeem(context.Background(), "tok", "newpw", "newpw")
		assert.ErrorIs(t, err, services.ErrTokenExpired)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newResetFixture(t, ctrl)

		f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(validRec(f.now), nil)
		f.writer.EXPECT().
			Redeem(gomock.Any(), "tok", gomock.Any(), f.now).
			Return(false, errors.New("tx failed"))

		err := f.svc.Redeem(context.Background(), "tok", "newpw", "newpw")
		assert.EqualError(t, err, "tx failed")
	})
}

// A token stays inspectable as valid right up to redemption, then reads as
// expired once used.
func TestPasswordResetService_SingleUseLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newResetFixture(t, ctrl)
	rec := &models.PasswordResetDB{
		UserID: 4, Token: "tok", ExpiresAt: f.now.Add(time.Hour), Email: "a@x.com",
	}

	f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(rec, nil)
	state, email, err := f.svc.InspectToken(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, services.TokenValid, state)
	assert.Equal(t, "a@x.com", email)

	f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(rec, nil)
	f.writer.EXPECT().
		Redeem(gomock.Any(), "tok", gomock.Any(), f.now).
		DoAndReturn(func(ctx context.Context, tok, hash string, now time.Time) (bool, error) {
			rec.Used = true
			return true, nil
		})
	assert.NoError(t, f.svc.Redeem(context.Background(), "tok", "newpw", "newpw"))

	f.reader.EXPECT().GetByToken(gomock.Any(), "tok").Return(rec, nil)
	state, _, err = f.svc.InspectToken(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, services.TokenExpired, state)
}
