package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/app/repository"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/eligibility"
	"github.com/doorstep-market/doorstep/internal/pkg/entitlements"
	"github.com/doorstep-market/doorstep/internal/pkg/pricing"
	"github.com/doorstep-market/doorstep/internal/pkg/usercontext"
)

// HandleServiceQuote prices one tier of a published service under the
// requested mode for the current agent.
func HandleServiceQuote(c *fiber.Ctx) error {
	mode := c.Query("mode", models.PricingModeRetail)
	tierID := c.Query("tier")
	if tierID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "tier query parameter is required"})
	}

	repo := repository.GetGlobalFactory().GetServiceRepository()
	service, err := repo.GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load service"})
	}
	version, err := repo.GetPublishedVersion(service.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}

	tier, ok := version.Pricing.Tier(tierID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tier_not_found", "message": "No such pricing tier"})
	}

	// Anonymous callers quote as a free-plan agent with no deals or points.
	var settings *models.UserSettings
	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn {
		settings, err = models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user settings"})
		}
	} else {
		settings = &models.UserSettings{Plan: string(entitlements.PlanFree)}
	}

	if !entitlements.CanUseMode(settings, models.GetAppSettings(), mode) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "mode_not_allowed", "message": "Pricing mode not available on your plan"})
	}

	in := pricing.Input{
		Mode:          mode,
		Currency:      version.Pricing.Currency,
		Tier:          tier,
		City:          c.Query("city", settings.HomeMarket),
		PointsBalance: settings.PointsBalance,
		Agent:         eligibility.AgentProfile{DealsLast12m: settings.AgentDeals()},
		ServiceID:     service.ID,
	}

	if mode == models.PricingModeCopay {
		partnerID, err := uuid.Parse(c.Query("partner_id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "partner_id must be a valid uuid for co-pay quotes"})
		}
		row, err := repository.GetGlobalFactory().GetPartnerRepository().GetByID(partnerID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "partner_not_found", "message": "Partner not found"})
		}
		if !row.Active {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "partner_ineligible", "message": "Partner is not active"})
		}
		partner := eligibility.FromModel(row)
		in.Partner = &partner
	}

	quote, err := pricing.BuildQuote(in)
	if err != nil {
		return quoteErrorResponse(c, err)
	}

	return c.JSON(quote)
}

// quoteErrorResponse maps pricing engine sentinels onto HTTP statuses.
func quoteErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, pricing.ErrUnknownMode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown pricing mode"})
	case errors.Is(err, pricing.ErrTierNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tier_not_found", "message": "No such pricing tier"})
	case errors.Is(err, pricing.ErrPartnerRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Co-pay quotes require partner_id"})
	case errors.Is(err, pricing.ErrPartnerIneligible):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "partner_ineligible", "message": "Partner is not eligible for this agent and service"})
	case errors.Is(err, pricing.ErrInsufficientPoints):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "insufficient_points", "message": "Points balance does not cover this tier"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Quote failed"})
	}
}
