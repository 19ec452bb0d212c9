package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/doorstep-market/doorstep/app/models"
)

type partnerRequest struct {
	Name                 *string  `json:"name"`
	Markets              []string `json:"markets"`
	CopayEnabled         *bool    `json:"copay_enabled"`
	MinAgentDealsPerYear *int     `json:"min_agent_deals_per_year"`
	AllowedServiceIDs    []string `json:"allowed_service_ids"`
	ProhibitedServiceIDs []string `json:"prohibited_service_ids"`
	SharePct             *int     `json:"share_pct"`
	Active               *bool    `json:"active"`
}

// HandlePartners lists co-pay partners for the admin console.
func (ac *AdminController) HandlePartners(c *fiber.Ctx) error {
	offset, limit := paginationParams(c, 20, 100)
	total, err := ac.repos.Partner.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get partner count", err)
	}
	partners, err := ac.repos.Partner.List(offset, limit)
	if err != nil {
		return ac.handleError(c, "Failed to load partners", err)
	}
	return c.JSON(fiber.Map{"partners": partners, "total": total})
}

// HandlePartnerCreate creates a co-pay partner.
func (ac *AdminController) HandlePartnerCreate(c *fiber.Ctx) error {
	var req partnerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "name is required"})
	}

	partner := models.VendorPartner{
		Name:    strings.TrimSpace(*req.Name),
		Markets: normalizeMarkets(req.Markets),
		Active:  true,
	}
	if req.CopayEnabled != nil {
		partner.CopayEnabled = *req.CopayEnabled
	}
	if req.MinAgentDealsPerYear != nil {
		partner.MinAgentDealsPerYear = *req.MinAgentDealsPerYear
	}
	if req.SharePct != nil {
		partner.SharePct = *req.SharePct
	}
	if req.Active != nil {
		partner.Active = *req.Active
	}

	var err error
	if partner.AllowedServiceIDs, err = parseUUIDList(req.AllowedServiceIDs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "allowed_service_ids must be uuids"})
	}
	if partner.ProhibitedServiceIDs, err = parseUUIDList(req.ProhibitedServiceIDs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "prohibited_service_ids must be uuids"})
	}

	if err := partner.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := ac.repos.Partner.Create(&partner); err != nil {
		return ac.handleError(c, "Failed to create partner", err)
	}
	return c.Status(fiber.StatusCreated).JSON(partner)
}

// HandlePartnerUpdate applies a partial update to a partner.
func (ac *AdminController) HandlePartnerUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Partner id must be a valid uuid"})
	}

	var req partnerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	partner, err := ac.repos.Partner.GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Partner not found"})
	}

	if req.Name != nil {
		partner.Name = strings.TrimSpace(*req.Name)
	}
	if req.Markets != nil {
		partner.Markets = normalizeMarkets(req.Markets)
	}
	if req.CopayEnabled != nil {
		partner.CopayEnabled = *req.CopayEnabled
	}
	if req.MinAgentDealsPerYear != nil {
		partner.MinAgentDealsPerYear = *req.MinAgentDealsPerYear
	}
	if req.SharePct != nil {
		partner.SharePct = *req.SharePct
	}
	if req.Active != nil {
		partner.Active = *req.Active
	}
	if req.AllowedServiceIDs != nil {
		if partner.AllowedServiceIDs, err = parseUUIDList(req.AllowedServiceIDs); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "allowed_service_ids must be uuids"})
		}
	}
	if req.ProhibitedServiceIDs != nil {
		if partner.ProhibitedServiceIDs, err = parseUUIDList(req.ProhibitedServiceIDs); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "prohibited_service_ids must be uuids"})
		}
	}

	if err := partner.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := ac.repos.Partner.Update(partner); err != nil {
		return ac.handleError(c, "Failed to update partner", err)
	}
	return c.JSON(partner)
}

// HandlePartnerDelete soft-deletes a partner. Existing bookings keep their
// partner reference.
func (ac *AdminController) HandlePartnerDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Partner id must be a valid uuid"})
	}
	if _, err := ac.repos.Partner.GetByID(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Partner not found"})
	}
	if err := ac.repos.Partner.Delete(id); err != nil {
		return ac.handleError(c, "Failed to delete partner", err)
	}
	return c.JSON(fiber.Map{"message": "Partner deleted"})
}

func normalizeMarkets(markets []string) models.StringList {
	out := make(models.StringList, 0, len(markets))
	for _, m := range markets {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseUUIDList(values []string) (models.UUIDList, error) {
	out := make(models.UUIDList, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
