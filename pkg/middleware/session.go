package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"scholarserbisyo/pkg/claims"
	"scholarserbisyo/pkg/session"
)

var (
	noSessUrls = map[string]string{
		"/api/signin":  http.MethodPost,
		"/api/signout": http.MethodPost,
	}
)

// RequireSession admits API requests whose session id cookie names a live
// dashboard session row belonging to the token's user. The token is decoded,
// not verified; the unguessable session id is what binds the request to a
// sign-in this server performed.
func RequireSession(sessions session.Repository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if route := mux.CurrentRoute(r); route != nil {
				template, err := route.GetPathTemplate()
				if err == nil {
					if method, ok := noSessUrls[template]; ok && method == r.Method {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			cookie, err := r.Cookie(claims.SessionCookie)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sid, err := r.Cookie(claims.SessionIDCookie)
			if err != nil || sid.Value == "" {
				unauthorized(w)
				return
			}

			c, err := claims.Parse(cookie.Value)
			if err != nil {
				logger.Debug("session cookie", "error", err)
				unauthorized(w)
				return
			}
			if c.Expired(time.Now()) {
				unauthorized(w)
				return
			}

			ok, err := sessions.IsValid(r.Context(), sid.Value, c.UserID)
			if err != nil {
				logger.Error("session lookup", "error", err, "user", c.UserID)
				unauthorized(w)
				return
			}
			if !ok {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), claims.TokenContextKey, c)
			ctx = context.WithValue(ctx, claims.RawContextKey, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message":"unauthorized"}`))
}
