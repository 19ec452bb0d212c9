package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/app/repository"
	"github.com/doorstep-market/doorstep/internal/pkg/cache"
	"github.com/doorstep-market/doorstep/internal/pkg/constants"
	"github.com/doorstep-market/doorstep/internal/pkg/sharelink"
	"github.com/doorstep-market/doorstep/internal/pkg/usercontext"
)

// StorefrontCacheTTL bounds staleness of the cached storefront payloads.
// Publish propagation invalidates them eagerly; the TTL is the backstop.
const StorefrontCacheTTL = 5 * time.Minute

const storefrontPageSize = 50

// HandleStart is the API index.
func HandleStart(c *fiber.Ctx) error {
	appSettings := models.GetAppSettings()
	resp := fiber.Map{"name": "doorstep"}
	if appSettings != nil {
		resp["title"] = appSettings.GetSiteTitle()
		resp["description"] = appSettings.GetSiteDescription()
	}
	return c.JSON(resp)
}

type storefrontService struct {
	ID          string              `json:"id"`
	Slug        string              `json:"slug"`
	VendorName  string              `json:"vendor_name"`
	Category    string              `json:"category"`
	PublishedAt *time.Time          `json:"published_at,omitempty"`
	Card        *models.ServiceCard `json:"card,omitempty"`
}

// HandleStorefrontServices lists published services for the storefront. The
// first page is served from Redis; deeper pages go straight to the database.
func HandleStorefrontServices(c *fiber.Ctx) error {
	offset, limit := paginationParams(c, storefrontPageSize, 100)

	if offset == 0 {
		if cached, err := cache.Get(cache.StorefrontServicesKey); err == nil && cached != "" {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(cached)
		}
	}

	repo := repository.GetGlobalFactory().GetServiceRepository()
	services, err := repo.GetPublished(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load services"})
	}

	items := make([]storefrontService, 0, len(services))
	for i := range services {
		item := storefrontService{
			ID:         services[i].ID.String(),
			Slug:       services[i].Slug,
			VendorName: services[i].VendorName,
			Category:   services[i].Category,
		}
		if version, err := repo.GetPublishedVersion(services[i].ID); err == nil {
			card := version.Card
			item.Card = &card
			item.PublishedAt = version.PublishedAt
		}
		items = append(items, item)
	}

	response := fiber.Map{"services": items}

	if offset == 0 {
		if payload, err := json.Marshal(response); err == nil {
			if err := cache.Set(cache.StorefrontServicesKey, string(payload), StorefrontCacheTTL); err != nil {
				log.Warnf("failed to cache storefront services: %v", err)
			}
		}
	}

	return c.JSON(response)
}

// HandleStorefrontService returns the published content of one service.
func HandleStorefrontService(c *fiber.Ctx) error {
	slug := c.Params("slug")

	if cached, err := cache.Get(cache.ServiceKey(slug)); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	repo := repository.GetGlobalFactory().GetServiceRepository()
	service, err := repo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load service"})
	}
	if !service.Active || !service.IsPublished() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}

	version, err := repo.GetPublishedVersion(service.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}

	response := fiber.Map{
		"id":           service.ID,
		"slug":         service.Slug,
		"vendor_name":  service.VendorName,
		"category":     service.Category,
		"card":         version.Card,
		"pricing":      version.Pricing,
		"funnel":       version.Funnel,
		"published_at": version.PublishedAt,
	}

	if payload, err := json.Marshal(response); err == nil {
		if err := cache.Set(cache.ServiceKey(slug), string(payload), StorefrontCacheTTL); err != nil {
			log.Warnf("failed to cache service %s: %v", slug, err)
		}
	}

	return c.JSON(response)
}

// HandleCreateShareLink mints a short share code for a published service.
func HandleCreateShareLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	repo := repository.GetGlobalFactory().GetServiceRepository()
	service, err := repo.GetBySlug(c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}
	if !service.IsPublished() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}

	code, err := sharelink.Create(service.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create share link"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"code":       code,
		"url":        constants.ShareLinkRoute + "/" + code,
		"expires_in": int(sharelink.DefaultTTL.Seconds()),
	})
}

// HandleShareLink resolves a short share code and redirects to the service.
func HandleShareLink(c *fiber.Ctx) error {
	serviceID, err := sharelink.Resolve(c.Params("code"))
	if err != nil {
		if errors.Is(err, sharelink.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Share link expired or unknown"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to resolve share link"})
	}

	service, err := repository.GetGlobalFactory().GetServiceRepository().GetByID(serviceID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service no longer exists"})
	}

	return c.Redirect(constants.APIV1Route+"/services/"+service.Slug, fiber.StatusSeeOther)
}
