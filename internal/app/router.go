package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recoleo/recoleo/internal/auth"
	"github.com/recoleo/recoleo/internal/clients"
	"github.com/recoleo/recoleo/internal/collections"
	"github.com/recoleo/recoleo/internal/contracts"
	"github.com/recoleo/recoleo/internal/documents"
	"github.com/recoleo/recoleo/internal/finance"
	"github.com/recoleo/recoleo/internal/formstate"
	"github.com/recoleo/recoleo/internal/inventory"
	"github.com/recoleo/recoleo/internal/observability"
	"github.com/recoleo/recoleo/internal/reports"
)

// RouterParams aggregates everything the HTTP router needs.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	Auth        *auth.Service
	Clients     *clients.Handler
	Contracts   *contracts.Handler
	Collections *collections.Handler
	Finance     *finance.Handler
	Inventory   *inventory.Handler
	Documents   *documents.Handler
	Reports     *reports.Handler
	Drafts      *formstate.Handler
}

// NewRouter builds the chi router with the full middleware stack and all
// module routes mounted.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  p.Logger,
		Config:  p.Config,
		Metrics: p.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", p.Metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(auth.Middleware(p.Auth))

		api.Route("/clients", p.Clients.MountRoutes)
		api.Route("/contracts", p.Contracts.MountRoutes)
		api.Route("/collections", p.Collections.MountRoutes)
		api.Route("/finance", p.Finance.MountRoutes)
		api.Route("/inventory", p.Inventory.MountRoutes)
		api.Route("/documents", p.Documents.MountRoutes)
		api.Route("/reports", p.Reports.MountRoutes)
		api.Route("/drafts", p.Drafts.MountRoutes)
	})

	return r
}
