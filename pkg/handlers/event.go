package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"scholarserbisyo/pkg/event"
)

type EventHandler struct {
	Service event.ServiceEvent
	Logger  *slog.Logger
	Now     func() time.Time
}

func NewEventHandler(service event.ServiceEvent, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		Service: service,
		Logger:  logger,
		Now:     time.Now,
	}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter *event.Status
	if q := r.URL.Query().Get("status"); q != "" {
		status, err := event.ParseStatus(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, typeMessage, "invalid status")
			return
		}
		filter = &status
	}

	events, err := h.Service.List(r.Context(), h.Now(), filter)
	if err != nil {
		h.Logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "failed to list events")
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, events)
}

func (h *EventHandler) Grouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.Grouped(r.Context(), h.Now())
	if err != nil {
		h.Logger.Error("group events", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "failed to list events")
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, groups)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := mux.Vars(r)[muxVarID]
	if !ok || id == "" {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid event id")
		return
	}

	e, err := h.Service.Get(r.Context(), id, h.Now())
	if err != nil {
		var perr *event.ParseError
		switch {
		case errors.Is(err, event.ErrNotFound):
			writeError(w, http.StatusNotFound, typeMessage, err.Error())
		case errors.Is(err, event.ErrInvalidID):
			writeError(w, http.StatusBadRequest, typeMessage, err.Error())
		case errors.As(err, &perr), errors.Is(err, event.ErrInvertedRange):
			h.Logger.Warn("unclassifiable event", "event", id, "error", err)
			writeError(w, http.StatusUnprocessableEntity, typeError, err.Error())
		default:
			h.Logger.Error("get event", "error", err, "event", id)
			writeError(w, http.StatusInternalServerError, typeError, "failed to fetch event")
		}
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, e)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, token, ok := getSession(w, r)
	if !ok {
		return
	}

	var form event.Event
	if ok := DecodeJSONBody(w, r, &form); !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), token, &form, h.Now())
	if err != nil {
		var verr *event.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, h.Logger, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Fields})
			return
		}
		writeRemoteError(w, h.Logger, "create event", err)
		return
	}

	if ok := writeJSON(w, h.Logger, http.StatusCreated, created); ok {
		h.Logger.Info("event created", "user", c.UserID, "event", created.ID)
	}
}

func (h *EventHandler) Sync(w http.ResponseWriter, r *http.Request) {
	c, token, ok := getSession(w, r)
	if !ok {
		return
	}

	n, err := h.Service.Sync(r.Context(), token, h.Now())
	if err != nil {
		writeRemoteError(w, h.Logger, "sync events", err)
		return
	}

	if ok := writeJSON(w, h.Logger, http.StatusOK, map[string]int{"mirrored": n}); ok {
		h.Logger.Info("events synced on demand", "user", c.UserID, "mirrored", n)
	}
}
