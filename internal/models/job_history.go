package models

import "time"

// Job status values. Only success is written by the synchronous flow.
const (
	JobStatusSuccess    = "success"
	JobStatusProcessing = "processing"
	JobStatusFailed     = "failed"
)

// JobHistoryDB represents one processed upload in the database
type JobHistoryDB struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	OutputFilename   string    `json:"output_filename" db:"output_filename"`
	BlurStrength     string    `json:"blur_strength" db:"blur_strength"` // free-form, not validated numerically
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
