package services

import "errors"

// Error variables surfaced to handlers. Login failures are deliberately
// undifferentiated so callers cannot probe for registered emails.
var (
	ErrFieldsRequired     = errors.New("required fields are missing")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidToken       = errors.New("invalid reset token")
	ErrTokenExpired       = errors.New("reset token expired or already used")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoFile             = errors.New("no file provided")
)
