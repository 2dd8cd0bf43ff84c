// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attestry/internal/platform/metrics"
	"attestry/internal/platform/middleware"
	"attestry/pkg/platform/httputil"
)

// Registrar mounts a handler's routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter assembles the middleware chain and mounts every handler plus the
// operational endpoints.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, handlers ...Registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.ContentTypeJSON)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
