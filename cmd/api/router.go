package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/eatwatah/eatwatah-api/pkg/middleware"
	"github.com/eatwatah/eatwatah-api/pkg/observability"
)

// SetupRouter configures all routes and returns the HTTP handler
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	if deps.Config.Telegram.JWTSecret == "" {
		deps.Logger.Warn("JWT secret is empty; session tokens cannot be verified")
	}

	var limiter *rate.Limiter
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter = rate.NewLimiter(
			rate.Limit(float64(deps.Config.Server.RateLimitPerSecond)),
			deps.Config.Server.RateLimitBurst,
		)
	}

	authn := middleware.WebAppAuth(
		deps.Config.Telegram.BotToken,
		deps.Config.Telegram.JWTSecret,
		deps.Config.Telegram.InitDataMaxAge,
		deps.Logger,
	)
	metrics := observability.NewMetricsMiddleware()

	protected := func(h http.HandlerFunc) http.Handler {
		return metrics(authn(h))
	}

	// WebApp API routes
	mux.Handle("POST /api/session", protected(deps.UserHandler.CreateSession))
	mux.Handle("DELETE /api/account", protected(deps.UserHandler.DeleteAccount))
	mux.Handle("POST /api/account/deactivate", protected(deps.UserHandler.DeactivateAccount))
	mux.Handle("GET /api/wishlist", protected(deps.WishlistHandler.List))
	mux.Handle("POST /api/wishlist", protected(deps.WishlistHandler.Add))
	mux.Handle("PATCH /api/wishlist/{id}", protected(deps.WishlistHandler.Update))
	mux.Handle("DELETE /api/wishlist/{id}", protected(deps.WishlistHandler.Delete))
	mux.Handle("GET /api/visits", protected(deps.VisitsHandler.List))
	mux.Handle("POST /api/visits", protected(deps.VisitsHandler.LogVisit))
	mux.Handle("GET /api/stats", protected(deps.StatsHandler.ChatStats))
	mux.Handle("GET /api/admin/stats", protected(deps.StatsHandler.AdminStats))
	mux.Handle("POST /api/recommendations", protected(deps.RecommendationHandler.Recommend))
	deps.Logger.Info("API routes configured")

	registerUtilityRoutes(mux, deps)

	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Recovery(deps.Logger),
		middleware.RateLimit(limiter),
		middleware.Logging(deps.Logger),
	)

	// Enable CORS for the Telegram WebApp and local frontend dev
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			"https://web.telegram.org",
			"http://localhost:3000",
		},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept-Encoding",
			"Content-Type",
			"Authorization",
			"X-Request-ID",
		},
		AllowCredentials: true,
	})

	return corsHandler.Handler(handler)
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Health(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unhealthy"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	deps.Logger.Info("registered health check", "path", "/health")

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
