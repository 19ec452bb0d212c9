package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/app/repository"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/eligibility"
	"github.com/doorstep-market/doorstep/internal/pkg/usercontext"
)

type eligiblePartner struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SharePct int    `json:"share_pct"`
	Benefit  string `json:"benefit"`
}

type ineligiblePartner struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// HandleEligiblePartners filters active co-pay partners against the current
// agent's profile for one service. Anonymous callers are evaluated as an
// unqualified agent (zero deals).
func HandleEligiblePartners(c *fiber.Ctx) error {
	appSettings := models.GetAppSettings()
	if appSettings != nil && !appSettings.IsCopayEnabled() {
		return c.JSON(fiber.Map{"partners": []eligiblePartner{}, "copay_enabled": false})
	}

	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "service_id must be a valid uuid"})
	}

	agent := eligibility.AgentProfile{}
	city := c.Query("city")

	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn {
		if settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID); err == nil {
			agent.DealsLast12m = settings.AgentDeals()
			if city == "" {
				city = settings.HomeMarket
			}
		}
	}

	rows, err := repository.GetGlobalFactory().GetPartnerRepository().GetActive()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load partners"})
	}

	params := eligibility.Params{ServiceID: serviceID, City: city, Agent: agent}
	partners := eligibility.FromModels(rows)

	eligible := make([]eligiblePartner, 0, len(partners))
	var ineligible []ineligiblePartner
	includeReasons := c.Query("include_reasons") == "1"

	for _, p := range partners {
		reason := eligibility.IneligibilityReason(p, params)
		if reason == "" {
			eligible = append(eligible, eligiblePartner{
				ID:       p.ID.String(),
				Name:     p.Name,
				SharePct: p.SharePct,
				Benefit:  eligibility.BenefitDescription(p),
			})
			continue
		}
		if includeReasons {
			ineligible = append(ineligible, ineligiblePartner{
				ID:     p.ID.String(),
				Name:   p.Name,
				Reason: reason,
			})
		}
	}

	response := fiber.Map{"partners": eligible, "copay_enabled": true, "city": city}
	if includeReasons {
		response["ineligible"] = ineligible
	}
	return c.JSON(response)
}
