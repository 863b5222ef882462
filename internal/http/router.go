// Package httpapi assembles the full API router: middleware chain,
// operational endpoints, and every feature handler mounted under /v1.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assetledger/internal/platform/middleware"
	"assetledger/pkg/platform/httputil"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router mounts.
type Deps struct {
	TokenValidator middleware.TokenValidator
	Logger         *slog.Logger
	Handlers       []Registrar
}

// NewRouter builds the API router. Operational endpoints stay outside the
// authenticated group; everything under /v1 requires a valid bearer token so
// every write is attributable to an actor.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v chi.Router) {
		v.Use(middleware.RequireActor(deps.TokenValidator, deps.Logger))
		for _, h := range deps.Handlers {
			h.Register(v)
		}
	})
	return r
}
