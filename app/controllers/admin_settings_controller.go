package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/jobqueue"
)

type settingsRequest struct {
	SiteTitle           string `json:"site_title"`
	SiteDescription     string `json:"site_description"`
	BookingEnabled      bool   `json:"booking_enabled"`
	CopayEnabled        bool   `json:"copay_enabled"`
	JobQueueWorkerCount int    `json:"jobqueue_worker_count"`
}

// HandleSettings returns the current application settings.
func (ac *AdminController) HandleSettings(c *fiber.Ctx) error {
	settings := models.GetAppSettings()
	if settings == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Settings not loaded"})
	}
	return c.JSON(fiber.Map{
		"site_title":            settings.GetSiteTitle(),
		"site_description":      settings.GetSiteDescription(),
		"booking_enabled":       settings.IsBookingEnabled(),
		"copay_enabled":         settings.IsCopayEnabled(),
		"jobqueue_worker_count": settings.GetJobQueueWorkerCount(),
	})
}

// HandleSettingsUpdate persists new application settings. The co-pay switch
// here is the global kill switch for partner pricing.
func (ac *AdminController) HandleSettingsUpdate(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	settings := &models.AppSettings{
		SiteTitle:           req.SiteTitle,
		SiteDescription:     req.SiteDescription,
		BookingEnabled:      req.BookingEnabled,
		CopayEnabled:        req.CopayEnabled,
		JobQueueWorkerCount: req.JobQueueWorkerCount,
	}
	if err := models.SaveSettings(database.GetDB(), settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Settings saved"})
}

// HandleQueueStats reports job queue depth and per-status counters.
func (ac *AdminController) HandleQueueStats(c *fiber.Ctx) error {
	queue := jobqueue.GetManager().GetQueue()
	ctx := c.Context()

	stats, err := queue.GetJobStats(ctx)
	if err != nil {
		return ac.handleError(c, "Failed to load job statistics", err)
	}
	queued, err := queue.GetQueueSize(ctx)
	if err != nil {
		return ac.handleError(c, "Failed to load queue size", err)
	}
	processing, err := queue.GetProcessingSize(ctx)
	if err != nil {
		return ac.handleError(c, "Failed to load processing size", err)
	}

	return c.JSON(fiber.Map{
		"stats":      stats,
		"queued":     queued,
		"processing": processing,
	})
}

// HandleDealsRecount triggers an immediate recount of every agent's trailing
// twelve-month deal totals.
func (ac *AdminController) HandleDealsRecount(c *fiber.Ctx) error {
	if err := jobqueue.GetManager().RunDealsRecountOnce(); err != nil {
		return ac.handleError(c, "Deals recount failed", err)
	}
	return c.JSON(fiber.Map{"message": "Deals recount completed"})
}
