package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/project-pulse/pulse/internal/api/http/handlers"
	"github.com/project-pulse/pulse/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Billing        *handlers.BillingHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get("/products", cfg.Billing.ListPlans)

	billingGroup := app.Group("/billing")
	billingGroup.Post("/webhook", cfg.Billing.Webhook)

	protected := billingGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/create-checkout-session", cfg.Billing.CreateCheckoutSession)
	protected.Post("/create-portal-session", cfg.Billing.CreatePortalSession)
	protected.Post("/cancel-subscription", cfg.Billing.CancelSubscription)
}
