package middleware

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"scholarserbisyo/pkg/gate"
)

// Gate redirects page requests according to routes before any page logic
// runs. It reads nothing but the session marker cookie.
func Gate(routes gate.Routes, decisions *prometheus.CounterVec, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := routes.Decide(r.URL.Path, gate.MarkerPresent(r))

			if !d.Redirect() {
				decisions.WithLabelValues("allow").Inc()
				next.ServeHTTP(w, r)
				return
			}

			decisions.WithLabelValues("redirect").Inc()
			logger.Debug("gate redirect", "path", r.URL.Path, "to", d.Location)
			http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
		})
	}
}
