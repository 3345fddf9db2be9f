package handlers

import (
	"io"
	"net/http"

	"github.com/mozik-app/mozik/internal/logger"
)

// NewMosaicAPIHandler implements the internal processing endpoint. The
// current implementation echoes the uploaded file back unchanged; a real
// mosaic algorithm plugs in here without touching the rest of the service.
// @Summary Process a media file
// @Description Internal endpoint called by the upload flow with a service token.
// @Tags internal
// @Accept multipart/form-data
// @Produce octet-stream
// @Param file formData file true "Media file"
// @Success 200 {file} file "Processed file"
// @Failure 400 {object} handlers.ErrorResponse "No file uploaded"
// @Router /api/mosaic [post]
func NewMosaicAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
			return
		}
		defer file.Close()

		if ct := header.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}

		if _, err := io.Copy(w, file); err != nil {
			logger.Log.Errorw("failed to write processed file", "err", err)
		}
	}
}
