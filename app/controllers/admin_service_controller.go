package controllers

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/cache"
	"github.com/doorstep-market/doorstep/internal/pkg/jobqueue"
	"github.com/doorstep-market/doorstep/internal/pkg/mediastore"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type serviceCreateRequest struct {
	Slug       string `json:"slug"`
	VendorName string `json:"vendor_name"`
	Category   string `json:"category"`
}

type serviceUpdateRequest struct {
	VendorName *string `json:"vendor_name"`
	Category   *string `json:"category"`
	Active     *bool   `json:"active"`
}

// HandleServices lists all services for the admin console, including
// unpublished and inactive ones.
func (ac *AdminController) HandleServices(c *fiber.Ctx) error {
	offset, limit := paginationParams(c, 20, 100)
	total, err := ac.repos.Service.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get service count", err)
	}
	services, err := ac.repos.Service.List(offset, limit)
	if err != nil {
		return ac.handleError(c, "Failed to load services", err)
	}
	return c.JSON(fiber.Map{"services": services, "total": total})
}

// HandleServiceCreate registers a new listing. Content editing happens
// afterwards through the draft endpoints; the first draft is created lazily
// on first read.
func (ac *AdminController) HandleServiceCreate(c *fiber.Ctx) error {
	var req serviceCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "slug must be lowercase letters, digits and hyphens"})
	}
	if strings.TrimSpace(req.Category) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "category is required"})
	}

	exists, err := ac.repos.Service.SlugExists(slug)
	if err != nil {
		return ac.handleError(c, "Failed to check slug", err)
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Slug is already taken"})
	}

	service := models.Service{
		Slug:       slug,
		VendorName: strings.TrimSpace(req.VendorName),
		Category:   strings.TrimSpace(req.Category),
		Active:     true,
	}
	if err := service.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := ac.repos.Service.Create(&service); err != nil {
		return ac.handleError(c, "Failed to create service", err)
	}
	return c.Status(fiber.StatusCreated).JSON(service)
}

// HandleServiceUpdate changes listing metadata. Deactivating a service pulls
// it from the storefront without touching its versions.
func (ac *AdminController) HandleServiceUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Service id must be a valid uuid"})
	}

	var req serviceUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	service, err := ac.repos.Service.GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}

	if req.VendorName != nil {
		service.VendorName = strings.TrimSpace(*req.VendorName)
	}
	if req.Category != nil {
		service.Category = strings.TrimSpace(*req.Category)
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := service.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := ac.repos.Service.Update(service); err != nil {
		return ac.handleError(c, "Failed to update service", err)
	}
	invalidateServiceCache(service.Slug)

	return c.JSON(service)
}

// HandleServiceDelete soft-deletes a listing and drops its cached storefront
// payloads.
func (ac *AdminController) HandleServiceDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Service id must be a valid uuid"})
	}
	service, err := ac.repos.Service.GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}
	if err := ac.repos.Service.Delete(id); err != nil {
		return ac.handleError(c, "Failed to delete service", err)
	}
	invalidateServiceCache(service.Slug)

	return c.JSON(fiber.Map{"message": "Service deleted"})
}

func invalidateServiceCache(slug string) {
	if err := cache.Delete(cache.ServiceKey(slug)); err != nil {
		log.Warnf("failed to drop cached service %s: %v", slug, err)
	}
	if err := cache.Delete(cache.StorefrontServicesKey); err != nil {
		log.Warnf("failed to drop cached storefront list: %v", err)
	}
}

type mediaPresignRequest struct {
	ContentType string `json:"content_type"`
}

type mediaCompleteRequest struct {
	ObjectKey string `json:"object_key"`
}

// HandleServiceMediaPresign hands out a presigned S3 upload URL for gallery
// assets. The client uploads directly to object storage and then reports the
// key back via the complete endpoint.
func (ac *AdminController) HandleServiceMediaPresign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Service id must be a valid uuid"})
	}
	if _, err := ac.repos.Service.GetByID(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}

	var req mediaPresignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "content_type must be an image type"})
	}

	client, err := newMediaClient()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "media_unavailable", "message": "Media uploads are not configured"})
	}

	upload, err := client.PresignUpload(c.Context(), id, req.ContentType)
	if err != nil {
		return ac.handleError(c, "Failed to presign upload", err)
	}
	return c.JSON(upload)
}

// HandleServiceMediaComplete confirms a finished upload and queues thumbnail
// generation.
func (ac *AdminController) HandleServiceMediaComplete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Service id must be a valid uuid"})
	}
	if _, err := ac.repos.Service.GetByID(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}

	var req mediaCompleteRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.ObjectKey) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "object_key is required"})
	}
	objectKey := strings.TrimSpace(req.ObjectKey)

	client, err := newMediaClient()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "media_unavailable", "message": "Media uploads are not configured"})
	}
	exists, err := client.ObjectExists(c.Context(), objectKey)
	if err != nil {
		return ac.handleError(c, "Failed to verify upload", err)
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No object at that key"})
	}

	if _, err := jobqueue.GetManager().GetQueue().EnqueueMediaThumbnailJob(id.String(), objectKey, 0); err != nil {
		log.Errorf("failed to enqueue thumbnail job for %s: %v", objectKey, err)
	}

	return c.JSON(fiber.Map{
		"object_key": objectKey,
		"public_url": client.PublicURL(objectKey),
	})
}

func newMediaClient() (*mediastore.Client, error) {
	cfg, err := mediastore.LoadConfig()
	if err != nil {
		return nil, err
	}
	return mediastore.NewClient(cfg)
}
