package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/paisapro/pricewise/internal/api/handlers"
	"github.com/paisapro/pricewise/internal/api/middleware"
	"github.com/paisapro/pricewise/internal/config"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/metrics"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Search  *handlers.SearchHandler
	Cart    *handlers.CartHandler
	History *handlers.HistoryHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200
	r.Use(metrics.Middleware)

	// Operational endpoints
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", h.Health.Healthz)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)

	// Search
	r.Get("/api/v1/search", h.Search.Search)
	r.Get("/api/v1/sources", h.Search.ListSources)

	// Shopping lists
	r.Route("/api/v1/carts", func(r chi.Router) {
		r.Post("/", h.Cart.Create)
		r.Get("/", h.Cart.Overview)
		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Put("/quantity", h.Cart.UpdateQuantity)
			r.Delete("/", h.Cart.DeleteItem)
			r.Post("/purchased", h.Cart.MarkPurchased)
			r.Post("/reactivate", h.Cart.Reactivate)
		})
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Cart.Get)
			r.Delete("/", h.Cart.Delete)
			r.Post("/items", h.Cart.AddItem)
			r.Post("/optimize", h.Cart.Optimize)
			r.Get("/snapshot", h.Cart.Snapshot)
		})
	})

	// Price history
	r.Get("/api/v1/price-history/{product}", h.History.Get)

	return r
}
