package handlers

import (
	"log/slog"
	"net/http"

	"scholarserbisyo/pkg/directory"
)

type DirectoryHandler struct {
	Service directory.ServiceDirectory
	Logger  *slog.Logger
}

func NewDirectoryHandler(service directory.ServiceDirectory, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{Service: service, Logger: logger}
}

func (h *DirectoryHandler) Schools(w http.ResponseWriter, r *http.Request) {
	_, token, ok := getSession(w, r)
	if !ok {
		return
	}

	schools, err := h.Service.Schools(r.Context(), token)
	if err != nil {
		writeRemoteError(w, h.Logger, "list schools", err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, schools)
}

func (h *DirectoryHandler) Barangays(w http.ResponseWriter, r *http.Request) {
	_, token, ok := getSession(w, r)
	if !ok {
		return
	}

	barangays, err := h.Service.Barangays(r.Context(), token)
	if err != nil {
		writeRemoteError(w, h.Logger, "list barangays", err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, barangays)
}
