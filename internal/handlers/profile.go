package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/middlewares"
	"github.com/mozik-app/mozik/internal/models"
	"github.com/mozik-app/mozik/internal/services"
	"github.com/mozik-app/mozik/internal/sessions"
)

// ProfileManager defines the interface the profile handlers require.
type ProfileManager interface {
	Get(ctx context.Context, userID int64) (*models.UserDB, error)
	ChangeEmail(ctx context.Context, userID int64, newEmail, password string) (*models.UserDB, error)
	ChangePassword(ctx context.Context, userID int64, current, newPassword, confirm string) error
	RegisterFace(ctx context.Context, userID int64, filename string) (*models.UserDB, error)
	DeleteAccount(ctx context.Context, userID int64, password string) error
	History(ctx context.Context, userID int64) ([]models.JobHistoryDB, error)
}

// ProfileResponse represents the authenticated user's profile
// swagger:model ProfileResponse
type ProfileResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FaceImage string    `json:"face_image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse represents a generic error response
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a generic success response
// swagger:model MessageResponse
type MessageResponse struct {
	Message string `json:"message"`
}

// HistoryItem represents one processed upload in the job history
// swagger:model HistoryItem
type HistoryItem struct {
	ID               int64     `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	OutputFilename   string    `json:"output_filename"`
	OutputURL        string    `json:"output_url"`
	BlurStrength     string    `json:"blur_strength,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

func toProfileResponse(u *models.UserDB) ProfileResponse {
	resp := ProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
	if u.FaceImage != nil {
		resp.FaceImage = "/uploads/" + *u.FaceImage
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "err", err)
	}
}

// userIDOr401 pulls the session user id placed by the session middleware.
func userIDOr401(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middlewares.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Not logged in"})
		return 0, false
	}
	return userID, true
}

// NewMyPageHandler returns the authenticated user's profile.
// @Summary Get profile
// @Tags profile
// @Produce json
// @Success 200 {object} handlers.ProfileResponse "Profile"
// @Failure 401 {object} handlers.ErrorResponse "Not logged in"
// @Router /mypage [get]
func NewMyPageHandler(svc ProfileManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDOr401(w, r)
		if !ok {
			return
		}

		user, err := svc.Get(r.Context(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "User not found"})
				return
			}
			logger.Log.Errorw("internal server error", "err", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(user))
	}
}

// NewChangeEmailHandler updates the account email after re-verifying the
// current password.
// @Summary Change email
// @Tags profile
// @Accept x-www-form-urlencoded
// @Produce json
// @Param new_email formData string true "New email"
// @Param password formData string true "Current password"
// @Success 200 {object} handlers.ProfileResponse "Updated profile"
// @Failure 400 {object} handlers.ErrorResponse "Missing fields"
// @Failure 401 {object} handlers.ErrorResponse "Wrong password"
// @Failure 409 {object} handlers.ErrorResponse "Email already registered"
// @Router /change_email [post]
func NewChangeEmailHandler(svc ProfileManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDOr401(w, r)
		if !ok {
			return
		}

		newEmail := strings.TrimSpace(r.FormValue("new_email"))
		password := r.FormValue("password")

		user, err := svc.ChangeEmail(r.Context(), userID, newEmail, password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrFieldsRequired):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Email and password are required"})
			case errors.Is(err, services.ErrWrongPassword):
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Wrong password"})
			case errors.Is(err, services.ErrEmailAlreadyExists):
				writeJSON(w, http.StatusConflict, ErrorResponse{Error: "An account with this email already exists"})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			}
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(user))
	}
}

// NewChangePasswordHandler rotates the account password after re-verifying
// the current one.
// @Summary Change password
// @Tags profile
// @Accept x-www-form-urlencoded
// @Produce json
// @Param current_password formData string true "Current password"
// @Param new_password formData string true "New password"
// @Param new_password_confirm formData string true "Confirmation"
// @Success 200 {object} handlers.MessageResponse "Password changed"
// @Failure 400 {object} handlers.ErrorResponse "Missing or mismatched passwords"
// @Failure 401 {object} handlers.ErrorResponse "Wrong password"
// @Router /change_password [post]
func NewChangePasswordHandler(svc ProfileManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDOr401(w, r)
		if !ok {
			return
		}

		err := svc.ChangePassword(r.Context(), userID,
			r.FormValue("current_password"),
			r.FormValue("new_password"),
			r.FormValue("new_password_confirm"),
		)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrFieldsRequired):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "New password is required"})
			case errors.Is(err, services.ErrPasswordMismatch):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Passwords do not match"})
			case errors.Is(err, services.ErrWrongPassword):
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Wrong password"})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			}
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Password changed"})
	}
}

// NewRegisterFaceHandler stores an uploaded face image and attaches it to
// the profile.
// @Summary Register face image
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Face image"
// @Success 200 {object} handlers.ProfileResponse "Updated profile"
// @Failure 400 {object} handlers.ErrorResponse "No file uploaded"
// @Router /register_face [post]
func NewRegisterFaceHandler(svc ProfileManager, files FaceSaver) http.HandlerFunc {
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

		filename, err := files.SaveFace(r.Context(), userID, header.Filename, file)
		if err != nil {
			if errors.Is(err, services.ErrNoFile) {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
				return
			}
			logger.Log.Errorw("internal server error", "err", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		user, err := svc.RegisterFace(r.Context(), userID, filename)
		if err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(user))
	}
}

// NewDeleteAccountHandler removes the account and everything hanging off it,
// then ends the session.
// @Summary Delete account
// @Tags profile
// @Accept x-www-form-urlencoded
// @Produce json
// @Param password formData string true "Current password"
// @Success 200 {object} handlers.MessageResponse "Account deleted"
// @Failure 401 {object} handlers.ErrorResponse "Wrong password"
// @Router /delete_account [post]
func NewDeleteAccountHandler(svc ProfileManager, store SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDOr401(w, r)
		if !ok {
			return
		}

		err := svc.DeleteAccount(r.Context(), userID, r.FormValue("password"))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrWrongPassword):
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Wrong password"})
			case errors.Is(err, services.ErrUserNotFound):
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "User not found"})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			}
			return
		}

		if sessionID, err := sessions.FromRequest(r); err == nil {
			if err := store.Destroy(r.Context(), sessionID); err != nil {
				logger.Log.Errorw("failed to destroy session", "err", err)
			}
		}
		sessions.ClearCookie(w)

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted"})
	}
}

// NewHistoryHandler lists the user's processed uploads, newest first.
// @Summary Job history
// @Tags profile
// @Produce json
// @Success 200 {array} handlers.HistoryItem "History"
// @Failure 401 {object} handlers.ErrorResponse "Not logged in"
// @Router /history [get]
func NewHistoryHandler(svc ProfileManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDOr401(w, r)
		if !ok {
			return
		}

		jobs, err := svc.History(r.Context(), userID)
		if err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		items := make([]HistoryItem, 0, len(jobs))
		for _, j := range jobs {
			items = append(items, HistoryItem{
				ID:               j.ID,
				OriginalFilename: j.OriginalFilename,
				OutputFilename:   j.OutputFilename,
				OutputURL:        "/uploads/" + j.OutputFilename,
				BlurStrength:     j.BlurStrength,
				Status:           j.Status,
				CreatedAt:        j.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, items)
	}
}
