package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukastore/backend/api/controllers"
	"github.com/dukastore/backend/api/middleware"
	"github.com/dukastore/backend/internal/cart"
	checkoutsvc "github.com/dukastore/backend/internal/checkout"
	"github.com/dukastore/backend/internal/pricing"
	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/logger"
	"github.com/dukastore/backend/pkg/session"
)

// Deps carries everything the HTTP surface needs. Keeping it a struct
// rather than a long parameter list makes wiring in main readable.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DBPinger   controllers.Pinger
	RedisPing  controllers.Pinger
	Sessions   *session.Store
	CartSvc    cart.Service
	CheckoutSv checkoutsvc.Service
	Pricing    *pricing.Aggregator
	Metrics    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPing))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		// A typed-nil *session.Store would slip past the middleware's
		// interface nil check, so resolve it here.
		identify := middleware.Identify(cfg.Session, nil, logg)
		if deps.Sessions != nil {
			identify = middleware.Identify(cfg.Session, deps.Sessions, logg)
		}
		r.Use(identify)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(deps.CartSvc, deps.Pricing, logg))
			r.Post("/", controllers.CartAdd(deps.CartSvc, logg))
			r.Delete("/", controllers.CartClear(deps.CartSvc, logg))
			r.Get("/count", controllers.CartCount(deps.CartSvc, logg))
			r.Patch("/lines/{lineId}", controllers.CartUpdateLine(deps.CartSvc, logg))
			r.Delete("/lines/{lineId}", controllers.CartRemoveLine(deps.CartSvc, logg))
			r.With(middleware.RequireUser(logg)).Post("/merge", controllers.CartMerge(deps.CartSvc, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.CheckoutSv, logg))
	})

	return r
}
