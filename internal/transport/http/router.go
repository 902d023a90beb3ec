package http

import (
	"log/slog"
	"net/http"

	"github.com/gevorg96/universe-labs/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// OrderAPI is the full order service surface the router exposes.
type OrderAPI interface {
	OrderBatchInserter
	OrderQuerier
}

// NewRouter wires the HTTP surface: order endpoints, health, and metrics.
func NewRouter(svc OrderAPI, logger *slog.Logger, m *metrics.ServerMetrics) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	if m != nil {
		r.Use(Metrics(m))
	}

	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1/order", func(r chi.Router) {
		r.Post("/batch-create", HandleBatchCreate(svc))
		r.Post("/query", HandleQueryOrders(svc))
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "resource not found")
	})

	return r
}
