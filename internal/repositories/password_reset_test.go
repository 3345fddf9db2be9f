package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestPasswordResetReadRepository_GetByToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPasswordResetReadRepository(db)

	expires := time.Now().Add(time.Hour)
	mock.ExpectQuery("SELECT pr.id, pr.user_id, pr.token, pr.expires_at, pr.used").
		WithArgs("tok123").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "token", "expires_at", "used", "created_at", "email"}).
			AddRow(int64(9), int64(4), "tok123", expires, false, time.Now(), "a@x.com"))

	rec, err := repo.GetByToken(context.Background(), "tok123")
	assert.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, int64(4), rec.UserID)
	assert.Equal(t, "a@x.com", rec.Email)
	assert.False(t, rec.Used)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetReadRepository_GetByToken_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPasswordResetReadRepository(db)

	mock.ExpectQuery("SELECT pr.id, pr.user_id, pr.token").
		WithArgs("unknown").
		WillReturnError(sql.ErrNoRows)

	rec, err := repo.GetByToken(context.Background(), "unknown")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPasswordResetWriteRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPasswordResetWriteRepository(db)

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec("INSERT INTO password_resets").
		WithArgs(int64(4), "tok123", expires).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, repo.Save(context.Background(), 4, "tok123", expires))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetWriteRepository_Redeem(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPasswordResetWriteRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE password_resets").
		WithArgs("tok123", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(4)))
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("newhash", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.Redeem(context.Background(), "tok123", "newhash", now)
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetWriteRepository_Redeem_NotRedeemable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPasswordResetWriteRepository(db)

	// used, expired, or unknown tokens all fail the conditional update
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE password_resets").
		WithArgs("spent", now).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	ok, err := repo.Redeem(context.Background(), "spent", "newhash", now)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetWriteRepository_Redeem_PasswordWriteFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPasswordResetWriteRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE password_resets").
		WithArgs("tok123", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(4)))
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("newhash", int64(4)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	ok, err := repo.Redeem(context.Background(), "tok123", "newhash", now)
	assert.Error(t, err)
	assert.False(t, ok)

	// both writes rolled back together
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetWriteRepository_Redeem_CommitFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPasswordResetWriteRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE password_resets").
		WithArgs("tok123", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(4)))
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("newhash", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

	ok, err := repo.Redeem(context.Background(), "tok123", "newhash", now)
	assert.Error(t, err)
	assert.False(t, ok)
}
