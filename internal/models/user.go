package models

import (
	"time"
)

// UserDB represents a user record in the database
type UserDB struct {
	ID           int64     `json:"id" db:"id"`                       // Primary key
	Username     *string   `json:"username,omitempty" db:"username"` // Legacy field, optional
	Email        string    `json:"email" db:"email"`                 // Unique email
	PasswordHash string    `json:"-" db:"password_hash"`             // Hashed password, never exposed
	FaceImage    *string   `json:"face_image,omitempty" db:"face_image"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
