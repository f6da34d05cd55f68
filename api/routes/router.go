package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pixelfair/pixelfair-backend/api/controllers"
	"github.com/pixelfair/pixelfair-backend/api/middleware"
	"github.com/pixelfair/pixelfair-backend/internal/auth"
	"github.com/pixelfair/pixelfair-backend/internal/ledger"
	"github.com/pixelfair/pixelfair-backend/internal/listings"
	"github.com/pixelfair/pixelfair-backend/internal/users"
	"github.com/pixelfair/pixelfair-backend/pkg/auth/session"
	"github.com/pixelfair/pixelfair-backend/pkg/config"
	"github.com/pixelfair/pixelfair-backend/pkg/db"
	"github.com/pixelfair/pixelfair-backend/pkg/logger"
	"github.com/pixelfair/pixelfair-backend/pkg/metrics"
	"github.com/pixelfair/pixelfair-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	sessionChecker session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	usersRepo *users.Repository,
	listingsService listings.Service,
	ledgerService ledger.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signup", controllers.AuthSignup(authService, logg))
		r.Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UserProfile(usersRepo, logg))
			r.Get("/{userId}", controllers.UserDetail(usersRepo, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.ListingSearch(listingsService, logg))
			r.Post("/", controllers.ListingCreate(listingsService, logg))
			r.Get("/{listingId}", controllers.ListingDetail(listingsService, logg))
			r.Patch("/{listingId}", controllers.ListingUpdate(listingsService, logg))
			r.Delete("/{listingId}", controllers.ListingDelete(listingsService, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.TransactionSearch(ledgerService, logg))
			r.Post("/", controllers.TransactionPurchase(ledgerService, logg))
			r.Get("/{transactionId}", controllers.TransactionDetail(ledgerService, logg))
			r.Patch("/{transactionId}", controllers.TransactionUpdate(ledgerService, logg))
			r.Delete("/{transactionId}", controllers.TransactionDelete(ledgerService, logg))
			r.Get("/{transactionId}/events", controllers.TransactionEvents(ledgerService, logg))
		})
	})

	return r
}
