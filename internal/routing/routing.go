package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"scholarserbisyo/internal/metrics"
	"scholarserbisyo/pkg/gate"
	"scholarserbisyo/pkg/handlers"
	"scholarserbisyo/pkg/middleware"
	"scholarserbisyo/pkg/session"
)

const (
	staticPath = "./static"
	indexPath  = "static/html/index.html"

	shutdownTimeout = 10 * time.Second
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Events        *handlers.EventHandler
	Directory     *handlers.DirectoryHandler
	ReturnService *handlers.ReturnServiceHandler
}

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// NewRouter assembles the dashboard: the JSON API behind RequireSession,
// metrics and health, static assets and the SPA fallback, all behind the gate.
func NewRouter(h Handlers, routes gate.Routes, sessions session.Repository, m *metrics.Metrics, checks map[string]Check, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Observe(m, logger))
	r.Use(middleware.Panic(logger))
	r.Use(middleware.Gate(routes, m.GateDecisions, logger))

	r.Handle("/metrics", m.Handler()).Methods("GET").Name("metrics")
	r.HandleFunc("/health", health(checks, logger)).Methods("GET").Name("health")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequireSession(sessions, logger))
	InitRoutes(api, h)

	ServeStaticFiles(r)
	ServeFallback(r, logger)
	return r
}

func InitRoutes(api *mux.Router, h Handlers) {
	authRouter := api.PathPrefix("").Subrouter()
	eventsRouter := api.PathPrefix("/events").Subrouter()
	scholarsRouter := api.PathPrefix("/scholars").Subrouter()

	/* auth routers */
	authRouter.HandleFunc("/signin", h.Auth.SignIn).Methods("POST").Name("signin")
	authRouter.HandleFunc("/signout", h.Auth.SignOut).Methods("POST").Name("signout")

	/* events routers */
	eventsRouter.HandleFunc("", h.Events.List).Methods("GET")
	eventsRouter.HandleFunc("", h.Events.Create).Methods("POST")
	eventsRouter.HandleFunc("/grouped", h.Events.Grouped).Methods("GET")
	eventsRouter.HandleFunc("/sync", h.Events.Sync).Methods("POST")
	eventsRouter.HandleFunc("/{id:[a-zA-Z0-9_-]+}", h.Events.Get).Methods("GET")

	/* directory routers */
	authRouter.HandleFunc("/schools", h.Directory.Schools).Methods("GET")
	authRouter.HandleFunc("/barangays", h.Directory.Barangays).Methods("GET")

	/* scholar routers */
	scholarsRouter.HandleFunc("/{id:[a-zA-Z0-9_-]+}/return-service", h.ReturnService.Summary).Methods("GET")
}

func ServeStaticFiles(r *mux.Router) {
	fs := http.FileServer(http.Dir(staticPath))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", fs))
}

// ServeFallback hands every page path to the SPA; unknown API paths get a JSON 404.
func ServeFallback(r *mux.Router, logger *slog.Logger) {
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			if _, err := w.Write([]byte(`{"message":"not found"}`)); err != nil {
				logger.Error("failed to write fallback JSON", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			return
		}
		http.ServeFile(w, r, indexPath)
	})
}

func health(checks map[string]Check, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", "component", name, "error", err)
				report[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			logger.Error("failed to write health report", "error", err)
		}
	}
}

// StartServer serves until ctx is cancelled and then drains in-flight requests.
func StartServer(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
