package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/doorstep-market/doorstep/app/controllers"
	"github.com/doorstep-market/doorstep/internal/pkg/middleware"
)

// ServerInterface lists the handlers the v1 API expects an implementation of.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetServiceDraft(c *fiber.Ctx, serviceID string) error
	PatchServiceDraftCard(c *fiber.Ctx, serviceID string) error
	PatchServiceDraftPricing(c *fiber.Ctx, serviceID string) error
	PatchServiceDraftFunnel(c *fiber.Ctx, serviceID string) error
	PublishServiceVersion(c *fiber.Ctx, draftID string) error
}

// ServerInterfaceWrapper adapts route parameters onto the ServerInterface.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// GetServiceDraft wraps the serviceId path parameter.
func (w *ServerInterfaceWrapper) GetServiceDraft(c *fiber.Ctx) error {
	return w.Handler.GetServiceDraft(c, c.Params("serviceId"))
}

// PatchServiceDraftCard wraps the serviceId path parameter.
func (w *ServerInterfaceWrapper) PatchServiceDraftCard(c *fiber.Ctx) error {
	return w.Handler.PatchServiceDraftCard(c, c.Params("serviceId"))
}

// PatchServiceDraftPricing wraps the serviceId path parameter.
func (w *ServerInterfaceWrapper) PatchServiceDraftPricing(c *fiber.Ctx) error {
	return w.Handler.PatchServiceDraftPricing(c, c.Params("serviceId"))
}

// PatchServiceDraftFunnel wraps the serviceId path parameter.
func (w *ServerInterfaceWrapper) PatchServiceDraftFunnel(c *fiber.Ctx) error {
	return w.Handler.PatchServiceDraftFunnel(c, c.Params("serviceId"))
}

// PublishServiceVersion wraps the draftId path parameter.
func (w *ServerInterfaceWrapper) PublishServiceVersion(c *fiber.Ctx) error {
	return w.Handler.PublishServiceVersion(c, c.Params("draftId"))
}

// RegisterHandlers wires the v1 API onto a router group. Storefront reads are
// public, account and booking routes take a session or API key, and the
// authoring plus admin surface requires the admin role.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	wrapper := &ServerInterfaceWrapper{Handler: si}

	router.Get("/ping", si.GetPing)

	// Storefront, quoting and partner eligibility. Anonymous callers are
	// priced as free-plan agents.
	router.Get("/services", controllers.HandleStorefrontServices)
	router.Get("/services/:slug", controllers.HandleStorefrontService)
	router.Get("/services/:slug/quote", controllers.HandleServiceQuote)
	router.Get("/partners/eligible", controllers.HandleEligiblePartners)

	// Account routes: session or API key.
	authed := router.Group("", middleware.SessionOrAPIKeyAuth())
	authed.Get("/user/profile", controllers.HandleGetUserAccount)
	authed.Patch("/user/profile", controllers.HandleUpdateUserProfile)
	authed.Post("/user/apikey", controllers.HandleUserAPIKeyGenerate)
	authed.Delete("/user/apikey", controllers.HandleUserAPIKeyRevoke)

	authed.Post("/services/:slug/share-links", controllers.HandleCreateShareLink)

	authed.Post("/bookings", controllers.HandleCreateBooking)
	authed.Get("/bookings", controllers.HandleListBookings)
	authed.Get("/bookings/:id", controllers.HandleGetBooking)
	authed.Post("/bookings/:id/cancel", controllers.HandleCancelBooking)

	authed.Post("/billing/checkout", controllers.HandleBillingCheckout)
	authed.Post("/billing/resync", controllers.HandleBillingResync)

	// Authoring and back office.
	admin := router.Group("/admin", middleware.SessionOrAPIKeyAuth(), middleware.RequireAPIAdmin)
	admin.Get("/dashboard", controllers.HandleAdminDashboard)

	admin.Get("/services/:serviceId/draft", wrapper.GetServiceDraft)
	admin.Patch("/services/:serviceId/draft/card", wrapper.PatchServiceDraftCard)
	admin.Patch("/services/:serviceId/draft/pricing", wrapper.PatchServiceDraftPricing)
	admin.Patch("/services/:serviceId/draft/funnel", wrapper.PatchServiceDraftFunnel)
	admin.Post("/service-versions/:draftId/publish", wrapper.PublishServiceVersion)

	admin.Get("/services", controllers.HandleAdminServices)
	admin.Post("/services", controllers.HandleAdminServiceCreate)
	admin.Patch("/services/:id", controllers.HandleAdminServiceUpdate)
	admin.Delete("/services/:id", controllers.HandleAdminServiceDelete)
	admin.Post("/services/:id/media/presign", controllers.HandleAdminServiceMediaPresign)
	admin.Post("/services/:id/media/complete", controllers.HandleAdminServiceMediaComplete)

	admin.Get("/partners", controllers.HandleAdminPartners)
	admin.Post("/partners", controllers.HandleAdminPartnerCreate)
	admin.Patch("/partners/:id", controllers.HandleAdminPartnerUpdate)
	admin.Delete("/partners/:id", controllers.HandleAdminPartnerDelete)

	admin.Get("/users", controllers.HandleAdminUsers)
	admin.Patch("/users/:id", controllers.HandleAdminUserUpdate)
	admin.Delete("/users/:id", controllers.HandleAdminUserDelete)
	admin.Post("/users/:id/resend-activation", controllers.HandleAdminResendActivation)

	admin.Get("/bookings", controllers.HandleAdminBookings)
	admin.Patch("/bookings/:id/status", controllers.HandleAdminBookingStatusUpdate)

	admin.Get("/settings", controllers.HandleAdminSettings)
	admin.Put("/settings", controllers.HandleAdminSettingsUpdate)
	admin.Get("/queue/stats", controllers.HandleAdminQueueStats)
	admin.Post("/deals/recount", controllers.HandleAdminDealsRecount)
}
