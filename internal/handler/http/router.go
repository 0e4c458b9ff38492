package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tusharag6/homestead-api/internal/service"
	"github.com/tusharag6/homestead-api/pkg/health"
	"github.com/tusharag6/homestead-api/pkg/middleware"
)

const serviceName = "homestead-api"

// RouterOptions holds the transport settings of the router.
type RouterOptions struct {
	CORS middleware.CORSConfig
	// SecureCookies sets the Secure cookie attribute and enables HSTS.
	SecureCookies bool
	// ListingMaxAge is the Cache-Control max-age of listing reads.
	ListingMaxAge time.Duration
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	authService *service.AuthService,
	listingService *service.ListingService,
	bookingService *service.BookingService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.SecurityHeaders(opts.SecureCookies))
	r.Use(middleware.CORS(opts.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	userHandler := NewUserHandler(authService, opts.SecureCookies, logger)
	authenticate := Authenticate(authService, userHandler.cookies.accessNames(), logger)

	r.Route("/api/v1/user", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.NoStore)

		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Get("/refresh", userHandler.Refresh)
		r.Post("/refresh", userHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/logout", userHandler.Logout)
			r.Post("/logout", userHandler.Logout)
			r.Get("/me", userHandler.Me)
			r.Post("/change-password", userHandler.ChangePassword)
		})
	})

	listingHandler := NewListingHandler(listingService, logger)

	r.Route("/api/v1/listings", func(r chi.Router) {
		r.Use(middleware.CacheControl(opts.ListingMaxAge))

		r.Get("/", listingHandler.List)
		r.Get("/all", listingHandler.List)
		r.Get("/{id}", listingHandler.Get)
	})

	bookingHandler := NewBookingHandler(bookingService, logger)

	r.Route("/api/v1/bookings", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.NoStore)
		r.Use(authenticate)

		r.Post("/reserve", bookingHandler.Reserve)
		r.Get("/user", bookingHandler.ListMine)
		r.Get("/{id}", bookingHandler.Get)
	})

	return r
}
