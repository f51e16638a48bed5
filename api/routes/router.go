package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bazaarworks/pincode-pricing-backend/api/controllers"
	"github.com/bazaarworks/pincode-pricing-backend/api/middleware"
	"github.com/bazaarworks/pincode-pricing-backend/internal/pricing"
	"github.com/bazaarworks/pincode-pricing-backend/internal/serviceability"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/config"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/db"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pricingService *pricing.Service,
	resolver *pricing.Resolver,
	serviceabilityService *serviceability.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Route("/prices", func(r chi.Router) {
			r.Post("/import", controllers.PricesImport(pricingService, cfg.Import.MaxUploadMB, logg))
			r.Get("/template", controllers.PricesTemplate(pricingService, logg))
			r.Get("/", controllers.PricesList(pricingService, logg))
			r.Delete("/products/{productId}", controllers.PricesDeactivateProduct(pricingService, logg))
		})
		r.Route("/serviceability", func(r chi.Router) {
			r.Get("/", controllers.ServiceabilityList(serviceabilityService, logg))
			r.Get("/{pincode}", controllers.ServiceabilityAdminGet(serviceabilityService, logg))
			r.Put("/{pincode}", controllers.ServiceabilityUpsert(serviceabilityService, logg))
		})
	})

	r.Route("/api/v1/pricing", func(r chi.Router) {
		r.Get("/resolve", controllers.ResolvePrice(resolver, logg))
		r.Get("/serviceability/{pincode}", controllers.ServiceabilityGet(serviceabilityService, logg))
	})

	return r
}
