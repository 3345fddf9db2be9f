package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/services"
)

// PasswordResetter defines the interface the reset flow handlers require.
type PasswordResetter interface {
	RequestReset(ctx context.Context, email string) error
	InspectToken(ctx context.Context, token string) (services.TokenState, string, error)
	Redeem(ctx context.Context, token, password, confirm string) error
}

// NewForgotPasswordPageHandler renders the request-reset form.
// @Summary Password reset request form
// @Tags reset
// @Produce html
// @Success 200 {string} string "Forgot password page"
// @Router /forgot-password [get]
func NewForgotPasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, http.StatusOK, forgotPage, pageData{})
	}
}

// NewForgotPasswordHandler issues a reset token and mails it. The response
// is identical whether or not the email belongs to an account.
// @Summary Request a password reset link
// @Tags reset
// @Accept x-www-form-urlencoded
// @Produce html
// @Param email formData string true "Email"
// @Success 200 {string} string "Confirmation page"
// @Failure 400 {string} string "Missing email"
// @Router /forgot-password [post]
func NewForgotPasswordHandler(svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.FormValue("email"))

		if err := svc.RequestReset(r.Context(), email); err != nil {
			switch {
			case errors.Is(err, services.ErrFieldsRequired):
				renderPage(w, http.StatusBadRequest, forgotPage, pageData{
					Error: "Email is required",
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				renderPage(w, http.StatusInternalServerError, forgotPage, pageData{
					Error: "Internal server error", Email: email,
				})
			}
			return
		}

		renderPage(w, http.StatusOK, forgotSentPage, pageData{})
	}
}

// NewResetPasswordPageHandler renders the new-password form when the token
// is still redeemable, and an explanatory page otherwise.
// @Summary Password reset form
// @Tags reset
// @Produce html
// @Param token path string true "Reset token"
// @Success 200 {string} string "Reset page"
// @Failure 404 {string} string "Invalid or expired token"
// @Router /reset-password/{token} [get]
func NewResetPasswordPageHandler(svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		state, email, err := svc.InspectToken(r.Context(), token)
		if err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			renderPage(w, http.StatusInternalServerError, resetInvalidPage, pageData{})
			return
		}

		if state != services.TokenValid {
			renderPage(w, http.StatusNotFound, resetInvalidPage, pageData{})
			return
		}

		renderPage(w, http.StatusOK, resetPage, pageData{Token: token, Email: email})
	}
}

// NewResetPasswordHandler redeems a token and sets the new password.
// @Summary Redeem a password reset token
// @Tags reset
// @Accept x-www-form-urlencoded
// @Produce html
// @Param token path string true "Reset token"
// @Param password formData string true "New password"
// @Param password_confirm formData string true "Confirmation"
// @Success 302 {string} string "Redirect to /login"
// @Failure 400 {string} string "Passwords missing or mismatched"
// @Failure 404 {string} string "Invalid or expired token"
// @Router /reset-password/{token} [post]
func NewResetPasswordHandler(svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		password := r.FormValue("password")
		confirm := r.FormValue("password_confirm")

		err := svc.Redeem(r.Context(), token, password, confirm)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidToken),
				errors.Is(err, services.ErrTokenExpired):
				renderPage(w, http.StatusNotFound, resetInvalidPage, pageData{})
			case errors.Is(err, services.ErrFieldsRequired):
				renderPage(w, http.StatusBadRequest, resetPage, pageData{
					Error: "Password is required", Token: token,
				})
			case errors.Is(err, services.ErrPasswordMismatch):
				renderPage(w, http.StatusBadRequest, resetPage, pageData{
					Error: "Passwords do not match", Token: token,
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				renderPage(w, http.StatusInternalServerError, resetPage, pageData{
					Error: "Internal server error", Token: token,
				})
			}
			return
		}

		http.Redirect(w, r, "/login", http.StatusFound)
	}
}
