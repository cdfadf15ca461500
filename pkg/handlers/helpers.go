package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"scholarserbisyo/pkg/backend"
	"scholarserbisyo/pkg/claims"
)

const (
	typeError   string = "error"
	typeMessage string = "message"
	muxVarID    string = "id"
)

func DecodeJSONBody(w http.ResponseWriter, r *http.Request, req any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeError(w, http.StatusBadRequest, typeError, "invalid Content-Type")
		return false
	}

	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, typeError, "bad json")
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) bool {
	resp, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to serialize JSON response", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "failed json marshal")
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(resp); err != nil {
		logger.Error("Failed to write response to client", "error", err)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, field, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{field: msg}); err != nil {
		return
	}
}

// getSession returns the claims and raw token RequireSession put in the context.
func getSession(w http.ResponseWriter, r *http.Request) (*claims.Claims, string, bool) {
	c, ok := r.Context().Value(claims.TokenContextKey).(*claims.Claims)
	raw, _ := r.Context().Value(claims.RawContextKey).(string)
	if !ok || c == nil || c.UserID == "" || raw == "" {
		writeError(w, http.StatusUnauthorized, typeMessage, "unauthorized")
		return nil, "", false
	}
	return c, raw, true
}

// writeRemoteError maps a failed call to the remote API onto a response.
func writeRemoteError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, typeMessage, "unauthorized")
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, typeMessage, "not found")
	default:
		logger.Error(action, "error", err)
		writeError(w, http.StatusBadGateway, typeError, "backend unavailable")
	}
}
