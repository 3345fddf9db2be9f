package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/models"
)

type JobHistoryReadRepository struct {
	db *sqlx.DB
}

func NewJobHistoryReadRepository(db *sqlx.DB) *JobHistoryReadRepository {
	return &JobHistoryReadRepository{db: db}
}

// ListByUserID returns the user's job history, newest first.
func (r *JobHistoryReadRepository) ListByUserID(ctx context.Context, userID int64) ([]models.JobHistoryDB, error) {
	const query = `
		SELECT id, user_id, original_filename, output_filename, blur_strength, status, created_at
		FROM job_history
		WHERE user_id = $1
		ORDER BY id DESC
	`

	var jobs []models.JobHistoryDB
	err := r.db.SelectContext(ctx, &jobs, query, userID)

	logger.Log.Debugw("job history read",
		"query", strings.Join(strings.Fields(query), " "),
		"user_id", userID,
		"error", err,
	)

	if err != nil {
		return nil, err
	}

	return jobs, nil
}

type JobHistoryWriteRepository struct {
	db *sqlx.DB
}

func NewJobHistoryWriteRepository(db *sqlx.DB) *JobHistoryWriteRepository {
	return &JobHistoryWriteRepository{db: db}
}

// Save records one processed upload.
func (r *JobHistoryWriteRepository) Save(ctx context.Context, userID int64, originalFilename, outputFilename, blurStrength, status string) error {
	const query = `
		INSERT INTO job_history (user_id, original_filename, output_filename, blur_strength, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	_, err := r.db.ExecContext(ctx, query, userID, originalFilename, outputFilename, blurStrength, status)

	logger.Log.Infow("job history insert",
		"user_id", userID,
		"original", originalFilename,
		"output", outputFilename,
		"error", err,
	)

	return err
}
