package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-promotions/api/controllers"
	discountcontrollers "github.com/angelmondragon/storefront-promotions/api/controllers/discounts"
	"github.com/angelmondragon/storefront-promotions/api/middleware"
	discountsvc "github.com/angelmondragon/storefront-promotions/internal/discounts"
	pkgAuth "github.com/angelmondragon/storefront-promotions/pkg/auth"
	"github.com/angelmondragon/storefront-promotions/pkg/config"
	"github.com/angelmondragon/storefront-promotions/pkg/db"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
	"github.com/angelmondragon/storefront-promotions/pkg/redis"
)

// Dependencies holds what the HTTP layer needs from cmd/api. Nil pingers are skipped by
// readiness and a nil idempotency store disables replay.
type Dependencies struct {
	Tokens      middleware.TokenVerifier
	DB          db.Pinger
	Redis       redis.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Discounts   discountsvc.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	view := middleware.RequirePermission(pkgAuth.PermissionDiscountsView, logg)
	manage := middleware.RequirePermission(pkgAuth.PermissionDiscountsManage, logg)
	idempotent := middleware.Idempotency(deps.Idempotency, cfg.App.IdempotencyTTL, logg)

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Tokens, logg))

		svc := deps.Discounts
		r.With(view).Get("/discounts", discountcontrollers.List(svc, logg))
		r.With(view).Get("/discounts/metrics", discountcontrollers.Metrics(svc, logg))
		r.With(manage, idempotent).Post("/discounts", discountcontrollers.Create(svc, logg))
		r.With(view).Get("/discounts/{discountId}", discountcontrollers.Get(svc, logg))
		r.With(view).Get("/discounts/{discountId}/usage", discountcontrollers.Usage(svc, logg))
		r.With(view).Post("/discounts/{discountId}/quote", discountcontrollers.Quote(svc, logg))
		r.With(manage).Put("/discounts/{discountId}", discountcontrollers.Update(svc, logg))
		r.With(manage).Delete("/discounts/{discountId}", discountcontrollers.Delete(svc, logg))
	})

	return r
}
