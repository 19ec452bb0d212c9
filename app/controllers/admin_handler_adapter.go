package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/doorstep-market/doorstep/app/repository"
)

// Global admin controller instance
var adminController *AdminController

// InitializeAdminController initializes the global admin controller with repositories
func InitializeAdminController() {
	repos := repository.GetGlobalRepositories()
	adminController = NewAdminController(repos)
}

// GetAdminController returns the global admin controller instance
func GetAdminController() *AdminController {
	if adminController == nil {
		InitializeAdminController()
	}
	return adminController
}

// Adapter functions to maintain compatibility with existing router

// HandleAdminDashboard - Adapter for admin dashboard
func HandleAdminDashboard(c *fiber.Ctx) error {
	return GetAdminController().HandleDashboard(c)
}

// HandleAdminUsers - Adapter for user management
func HandleAdminUsers(c *fiber.Ctx) error {
	return GetAdminController().HandleUsers(c)
}

// HandleAdminUserUpdate - Adapter for user update
func HandleAdminUserUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleUserUpdate(c)
}

// HandleAdminUserDelete - Adapter for user delete
func HandleAdminUserDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleUserDelete(c)
}

// HandleAdminResendActivation - Adapter for resend activation
func HandleAdminResendActivation(c *fiber.Ctx) error {
	return GetAdminController().HandleUserResendActivation(c)
}

// HandleAdminPartners - Adapter for partner listing
func HandleAdminPartners(c *fiber.Ctx) error {
	return GetAdminController().HandlePartners(c)
}

// HandleAdminPartnerCreate - Adapter for partner creation
func HandleAdminPartnerCreate(c *fiber.Ctx) error {
	return GetAdminController().HandlePartnerCreate(c)
}

// HandleAdminPartnerUpdate - Adapter for partner update
func HandleAdminPartnerUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandlePartnerUpdate(c)
}

// HandleAdminPartnerDelete - Adapter for partner deletion
func HandleAdminPartnerDelete(c *fiber.Ctx) error {
	return GetAdminController().HandlePartnerDelete(c)
}

// HandleAdminServices - Adapter for service listing
func HandleAdminServices(c *fiber.Ctx) error {
	return GetAdminController().HandleServices(c)
}

// HandleAdminServiceCreate - Adapter for service creation
func HandleAdminServiceCreate(c *fiber.Ctx) error {
	return GetAdminController().HandleServiceCreate(c)
}

// HandleAdminServiceUpdate - Adapter for service update
func HandleAdminServiceUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleServiceUpdate(c)
}

// HandleAdminServiceDelete - Adapter for service deletion
func HandleAdminServiceDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleServiceDelete(c)
}

// HandleAdminServiceMediaPresign - Adapter for media upload presigning
func HandleAdminServiceMediaPresign(c *fiber.Ctx) error {
	return GetAdminController().HandleServiceMediaPresign(c)
}

// HandleAdminServiceMediaComplete - Adapter for media upload completion
func HandleAdminServiceMediaComplete(c *fiber.Ctx) error {
	return GetAdminController().HandleServiceMediaComplete(c)
}

// HandleAdminBookings - Adapter for booking listing
func HandleAdminBookings(c *fiber.Ctx) error {
	return GetAdminController().HandleBookings(c)
}

// HandleAdminBookingStatusUpdate - Adapter for booking status changes
func HandleAdminBookingStatusUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleBookingStatusUpdate(c)
}

// HandleAdminSettings - Adapter for settings read
func HandleAdminSettings(c *fiber.Ctx) error {
	return GetAdminController().HandleSettings(c)
}

// HandleAdminSettingsUpdate - Adapter for settings update
func HandleAdminSettingsUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleSettingsUpdate(c)
}

// HandleAdminQueueStats - Adapter for job queue statistics
func HandleAdminQueueStats(c *fiber.Ctx) error {
	return GetAdminController().HandleQueueStats(c)
}

// HandleAdminDealsRecount - Adapter for manual deals recount
func HandleAdminDealsRecount(c *fiber.Ctx) error {
	return GetAdminController().HandleDealsRecount(c)
}
