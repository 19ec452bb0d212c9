package router

import (
	"github.com/doorstep-market/doorstep/app/controllers"
	"github.com/doorstep-market/doorstep/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// API routes moved to ApiRouter (internal/pkg/router/api_router.go)

	// Short share URLs minted for published services
	app.Get("/s/:code", loggedInMiddleware, controllers.HandleShareLink)

	// Signed action links embedded in booking notification mails
	app.Get("/bookings/action", controllers.HandleBookingAction)

	// Flash message pickup for the SPA shell
	app.Get("/flash", loggedInMiddleware, controllers.HandleFlashGet)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}
