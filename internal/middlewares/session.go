package middlewares

import (
	"context"
	"net/http"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/sessions"
)

const userIDKey ctxKey = "userID"

// SessionGetter resolves a session id to the user id that owns it.
type SessionGetter interface {
	Get(ctx context.Context, sessionID string) (int64, error)
}

// SessionMiddleware returns a middleware that requires a valid session
// cookie. Unauthenticated browsers are redirected to the login page; the
// resolved user id is placed in the request context for handlers.
func SessionMiddleware(store SessionGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID, err := sessions.FromRequest(r)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			userID, err := store.Get(ctx, sessionID)
			if err != nil {
				if err != sessions.ErrNotFound {
					logger.Log.Errorw("session lookup failed", "err", err)
				}
				sessions.ClearCookie(w)
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ctx = context.WithValue(ctx, userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithUserID returns a context carrying the given user id, as
// SessionMiddleware would produce for an authenticated request.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user id stored by SessionMiddleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
