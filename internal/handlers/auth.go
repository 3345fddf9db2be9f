package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/services"
	"github.com/mozik-app/mozik/internal/sessions"
)

// Registerer defines the interface that the signup service must implement.
type Registerer interface {
	Register(ctx context.Context, email, password string) error
}

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, email, password string) (int64, error)
}

// SessionManager creates and destroys server-side sessions.
type SessionManager interface {
	Create(ctx context.Context, userID int64) (string, error)
	Destroy(ctx context.Context, sessionID string) error
}

// NewSignupPageHandler renders the signup form.
// @Summary Signup form
// @Tags auth
// @Produce html
// @Success 200 {string} string "Signup page"
// @Router /signup [get]
func NewSignupPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, http.StatusOK, signupPage, pageData{})
	}
}

// NewSignupHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new account with a unique email. Password is hashed before storing. Redirects to the login page on success.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 302 {string} string "Redirect to /login"
// @Failure 400 {string} string "Missing fields"
// @Failure 409 {string} string "Email already registered"
// @Router /signup [post]
func NewSignupHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		err := svc.Register(r.Context(), email, password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrFieldsRequired):
				renderPage(w, http.StatusBadRequest, signupPage, pageData{
					Error: "Email and password are required", Email: email,
				})
			case errors.Is(err, services.ErrEmailAlreadyExists):
				renderPage(w, http.StatusConflict, signupPage, pageData{
					Error: "An account with this email already exists", Email: email,
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				renderPage(w, http.StatusInternalServerError, signupPage, pageData{
					Error: "Internal server error", Email: email,
				})
			}
			return
		}

		http.Redirect(w, r, "/login", http.StatusFound)
	}
}

// NewLoginPageHandler renders the login form.
// @Summary Login form
// @Tags auth
// @Produce html
// @Success 200 {string} string "Login page"
// @Router /login [get]
func NewLoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, http.StatusOK, loginPage, pageData{})
	}
}

// NewLoginHandler returns an HTTP handler for user login. On success it
// creates a server-side session, sets the session cookie and redirects to
// the profile page.
// @Summary User login
// @Description Authenticate by email and password and start a session
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 302 {string} string "Redirect to /mypage"
// @Failure 401 {string} string "Invalid email or password"
// @Router /login [post]
func NewLoginHandler(svc Loginer, store SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		userID, err := svc.Login(r.Context(), email, password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrFieldsRequired),
				errors.Is(err, services.ErrInvalidCredentials):
				renderPage(w, http.StatusUnauthorized, loginPage, pageData{
					Error: "Invalid email or password", Email: email,
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				renderPage(w, http.StatusInternalServerError, loginPage, pageData{
					Error: "Internal server error", Email: email,
				})
			}
			return
		}

		sessionID, err := store.Create(r.Context(), userID)
		if err != nil {
			logger.Log.Errorw("failed to create session", "err", err)
			renderPage(w, http.StatusInternalServerError, loginPage, pageData{
				Error: "Internal server error", Email: email,
			})
			return
		}

		sessions.SetCookie(w, sessionID)
		http.Redirect(w, r, "/mypage", http.StatusFound)
	}
}

// NewLogoutHandler destroys the current session and clears the cookie.
// Logging out without a session is not an error.
// @Summary Log out
// @Tags auth
// @Success 302 {string} string "Redirect to /login"
// @Router /logout [get]
func NewLogoutHandler(store SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, err := sessions.FromRequest(r); err == nil {
			if err := store.Destroy(r.Context(), sessionID); err != nil {
				logger.Log.Errorw("failed to destroy session", "err", err)
			}
		}

		sessions.ClearCookie(w)
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}
