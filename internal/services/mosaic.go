package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/models"
)

// MosaicTransformer forwards a file to the processing endpoint and returns
// the processed bytes.
type MosaicTransformer interface {
	Transform(ctx context.Context, filename string, file io.Reader) ([]byte, string, error)
}

// JobHistoryWriter defines write operations for job history.
type JobHistoryWriter interface {
	Save(ctx context.Context, userID int64, originalFilename, outputFilename, blurStrength, status string) error
}

// MosaicService runs the synchronous upload-and-process workflow: persist
// the original, forward it to the processor, persist the output, record the
// job.
type MosaicService struct {
	transformer MosaicTransformer
	history     JobHistoryWriter
	uploadDir   string
	audit       *AuditPublisher
}

// NewMosaicService creates a new MosaicService writing files under uploadDir.
func NewMosaicService(transformer MosaicTransformer, history JobHistoryWriter, uploadDir string, audit *AuditPublisher) *MosaicService {
	return &MosaicService{
		transformer: transformer,
		history:     history,
		uploadDir:   uploadDir,
		audit:       audit,
	}
}

// SanitizeFilename strips any path components and replaces characters that
// are unsafe in a stored filename. Returns "" when nothing usable remains.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if strings.Trim(out, "._") == "" {
		return ""
	}
	return out
}

// Process handles one upload end to end and returns the stored original and
// output filenames. Output files carry a "mosaic_" prefix; originals keep
// their sanitized name, so repeated uploads of the same filename overwrite.
func (svc *MosaicService) Process(ctx context.Context, userID int64, filename string, file io.Reader, blurStrength string) (string, string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", "", ErrNoFile
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Log.Errorw("failed to read upload", "user_id", userID, "err", err)
		return "", "", err
	}

	if err := os.WriteFile(filepath.Join(svc.uploadDir, name), data, 0o644); err != nil {
		logger.Log.Errorw("failed to store original upload", "user_id", userID, "file", name, "err", err)
		return "", "", err
	}

	processed, _, err := svc.transformer.Transform(ctx, name, bytes.NewReader(data))
	if err != nil {
		return "", "", err
	}

	output := "mosaic_" + name
	if err := os.WriteFile(filepath.Join(svc.uploadDir, output), processed, 0o644); err != nil {
		logger.Log.Errorw("failed to store processed upload", "user_id", userID, "file", output, "err", err)
		return "", "", err
	}

	if err := svc.history.Save(ctx, userID, name, output, blurStrength, models.JobStatusSuccess); err != nil {
		logger.Log.Errorw("failed to record job history", "user_id", userID, "err", err)
		return "", "", err
	}

	svc.audit.Publish(ctx, models.EventJobCompleted, userID, "", output)
	return name, output, nil
}

// SaveFace stores a face image under a collision-free name built from the
// user id and the current time, and returns the stored filename.
func (svc *MosaicService) SaveFace(ctx context.Context, userID int64, filename string, file io.Reader) (string, error) {
	if SanitizeFilename(filename) == "" {
		return "", ErrNoFile
	}

	name := fmt.Sprintf("face_%d_%d%s", userID, time.Now().Unix(), strings.ToLower(filepath.Ext(filename)))

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(svc.uploadDir, name), data, 0o644); err != nil {
		logger.Log.Errorw("failed to store face image", "user_id", userID, "err", err)
		return "", err
	}

	return name, nil
}
