package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/mozik-app/mozik/internal/facades"
	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/services"
)

// UploadProcessor runs the synchronous upload-and-process workflow.
type UploadProcessor interface {
	Process(ctx context.Context, userID int64, filename string, file io.Reader, blurStrength string) (string, string, error)
}

// FaceSaver stores a face image and returns the stored filename.
type FaceSaver interface {
	SaveFace(ctx context.Context, userID int64, filename string, file io.Reader) (string, error)
}

// UploadResponse represents a completed mosaic job
// swagger:model UploadResponse
type UploadResponse struct {
	OriginalFilename string `json:"original_filename"`
	OutputFilename   string `json:"output_filename"`
	OutputURL        string `json:"output_url"`
}

// NewUploadPageHandler renders the upload form for the given media kind.
// @Summary Upload form
// @Tags mosaic
// @Produce html
// @Success 200 {string} string "Upload page"
// @Router /image [get]
// @Router /video [get]
func NewUploadPageHandler(action, accept string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, http.StatusOK, uploadPage, pageData{Action: action, Accept: accept})
	}
}

// NewUploadHandler accepts a media file, forwards it to the processing
// endpoint and returns the stored filenames. The request blocks until
// processing finishes.
// @Summary Upload a file for mosaic processing
// @Tags mosaic
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Media file"
// @Param blur_strength formData string false "Blur strength"
// @Success 200 {object} handlers.UploadResponse "Processed file"
// @Failure 400 {object} handlers.ErrorResponse "No file uploaded"
// @Failure 502 {object} handlers.ErrorResponse "Processing service unavailable"
// @Router /image [post]
// @Router /video [post]
func NewUploadHandler(svc UploadProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDOr401(w, r)
		if !ok {
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
			return
		}
		defer file.Close()

		original, output, err := svc.Process(r.Context(), userID, header.Filename, file, r.FormValue("blur_strength"))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNoFile):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
			case errors.Is(err, facades.ErrUpstreamUnavailable):
				writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "Processing service unavailable"})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			}
			return
		}

		writeJSON(w, http.StatusOK, UploadResponse{
			OriginalFilename: original,
			OutputFilename:   output,
			OutputURL:        "/uploads/" + output,
		})
	}
}

// NewUploadsHandler serves stored files by name. Names are reduced to their
// base so the handler cannot be walked out of the upload directory.
// @Summary Fetch a stored file
// @Tags mosaic
// @Produce octet-stream
// @Param filename path string true "Stored filename"
// @Success 200 {file} file "File contents"
// @Failure 404 {string} string "Not found"
// @Router /uploads/{filename} [get]
func NewUploadsHandler(uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(chi.URLParam(r, "filename"))
		if name == "." || name == ".." || name == string(filepath.Separator) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filepath.Join(uploadDir, name))
	}
}
