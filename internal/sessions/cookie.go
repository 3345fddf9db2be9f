package sessions

import (
	"errors"
	"net/http"
)

// CookieName is the browser cookie carrying the session id.
const CookieName = "mozik_session"

// SetCookie writes the session cookie. MaxAge is deliberately unset so the
// cookie is non-durable and vanishes when the browser session ends.
func SetCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest returns the session id carried by the request cookie.
func FromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", errors.New("session cookie missing")
	}
	return c.Value, nil
}
