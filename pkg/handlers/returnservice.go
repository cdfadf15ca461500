package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"scholarserbisyo/pkg/returnservice"
)

type ReturnServiceHandler struct {
	Service returnservice.ServiceReturn
	Logger  *slog.Logger
	Now     func() time.Time
}

func NewReturnServiceHandler(service returnservice.ServiceReturn, logger *slog.Logger) *ReturnServiceHandler {
	return &ReturnServiceHandler{Service: service, Logger: logger, Now: time.Now}
}

func (h *ReturnServiceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	_, token, ok := getSession(w, r)
	if !ok {
		return
	}

	scholarID := mux.Vars(r)[muxVarID]

	sum, err := h.Service.Summary(r.Context(), token, scholarID, h.Now())
	if err != nil {
		if errors.Is(err, returnservice.ErrInvalidScholar) {
			writeError(w, http.StatusBadRequest, typeMessage, err.Error())
			return
		}
		writeRemoteError(w, h.Logger, "return service", err)
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, sum)
}
