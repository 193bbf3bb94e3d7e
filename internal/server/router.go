// Package server assembles the HTTP surface.
package server

import (
	"context"
	"net/http"

	"github.com/creatorkit/backend/internal/handler"
	appMiddleware "github.com/creatorkit/backend/internal/middleware"
	"github.com/creatorkit/backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps is everything the router needs.
type Deps struct {
	Logger       *zap.Logger
	CORSOrigins  []string
	Auth         *service.AuthService
	Verifier     *service.PaymentVerifier
	Usage        *service.UsageService
	Entitlements *service.EntitlementService
	Store        handler.Pinger
	Features     handler.FeatureLister
}

// NewRouter builds the chi router. Background limiter sweeps stop when ctx is done.
func NewRouter(ctx context.Context, d Deps) http.Handler {
	healthHandler := handler.NewHealthHandler(d.Store)
	plansHandler := handler.NewPlansHandler(d.Features)
	paymentHandler := handler.NewPaymentHandler(d.Verifier)
	creditsHandler := handler.NewCreditsHandler(d.Usage, d.Entitlements)
	entitlementHandler := handler.NewEntitlementHandler(d.Entitlements)
	adminHandler := handler.NewAdminHandler(d.Entitlements)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.Recovery(d.Logger))
	r.Use(appMiddleware.Logger(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(ctx, 20, 40)
	r.Use(globalRL.Middleware())

	// Health check and public routes (no auth)
	r.Get("/health", healthHandler.Check)
	r.Get("/api/plans", plansHandler.List)
	r.Get("/api/features", plansHandler.Features)

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(d.Auth))

		r.Get("/api/entitlement", entitlementHandler.Get)
		r.Post("/api/subscription/cancel", entitlementHandler.Cancel)
		r.Post("/api/credits/consume", creditsHandler.Consume)
		r.Get("/api/credits/transactions", creditsHandler.Transactions)

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.StrictRateLimiter(ctx))
			r.Post("/api/payment/verify", paymentHandler.Verify)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminOnly)
			r.Get("/api/admin/stats", adminHandler.GetStats)
			r.Put("/api/admin/entitlements/{userId}/unlimited", adminHandler.SetUnlimited)
		})
	})

	return r
}
