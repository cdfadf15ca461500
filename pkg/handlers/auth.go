package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"scholarserbisyo/pkg/backend"
	"scholarserbisyo/pkg/claims"
	"scholarserbisyo/pkg/gate"
	"scholarserbisyo/pkg/session"
)

const defaultSessionTTL = time.Hour

type SignInForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthHandler struct {
	Remote       Authenticator
	Sessions     session.Repository
	Logger       *slog.Logger
	CookieSecure bool
	Now          func() time.Time
}

func NewAuthHandler(remote Authenticator, sessions session.Repository, logger *slog.Logger, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		Remote:       remote,
		Sessions:     sessions,
		Logger:       logger,
		CookieSecure: cookieSecure,
		Now:          time.Now,
	}
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, typeMessage, "email and password are required")
		return
	}

	token, err := h.Remote.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, typeMessage, "invalid credentials")
			return
		}
		writeRemoteError(w, h.Logger, "signin", err)
		return
	}

	c, err := claims.Parse(token)
	if err != nil {
		h.Logger.Error("signin: undecodable token from backend", "error", err)
		writeError(w, http.StatusBadGateway, typeError, "backend issued an unreadable token")
		return
	}

	now := h.Now()
	expires := c.Expiry(now, defaultSessionTTL)
	if !expires.After(now) {
		writeError(w, http.StatusBadGateway, typeError, "backend issued an expired token")
		return
	}

	sessionID, err := h.Sessions.Create(r.Context(), c.UserID, uuid.NewString(), expires)
	if err != nil {
		h.Logger.Error("signin: create session", "error", err, "user", c.UserID)
		writeError(w, http.StatusInternalServerError, typeError, "failed to create session")
		return
	}

	h.setCookie(w, claims.SessionCookie, token, expires, true)
	h.setCookie(w, claims.SessionIDCookie, sessionID, expires, true)
	h.setCookie(w, gate.MarkerCookie, "1", expires, false)

	if ok := writeJSON(w, h.Logger, http.StatusOK, map[string]any{
		"user_id":    c.UserID,
		"role":       c.Role,
		"expires_at": expires.UTC(),
	}); ok {
		h.Logger.Info("signin", "user", c.UserID)
	}
}

// SignOut drops the session named by the session id cookie and always clears
// the cookies, even when the session is already gone.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if sid, err := r.Cookie(claims.SessionIDCookie); err == nil && sid.Value != "" {
		if err := h.Sessions.Invalidate(r.Context(), sid.Value); err != nil {
			h.Logger.Error("signout: invalidate", "error", err, "session", sid.Value)
		} else {
			h.Logger.Info("signout", "session", sid.Value)
		}
	}

	h.clearCookie(w, claims.SessionCookie, true)
	h.clearCookie(w, claims.SessionIDCookie, true)
	h.clearCookie(w, gate.MarkerCookie, false)

	writeJSON(w, h.Logger, http.StatusOK, map[string]string{"message": "signed out"})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, expires time.Time, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: httpOnly,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
