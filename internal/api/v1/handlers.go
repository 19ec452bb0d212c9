package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/drafts"
)

// APIServer implements the ServerInterface
type APIServer struct {
	drafts *drafts.Service
}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{
		drafts: drafts.NewServiceFromDB(database.GetDB()),
	}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetServiceDraft returns the editing bundle for a service: current draft,
// live published version and publish history. A blank draft is created on
// first read.
func (s *APIServer) GetServiceDraft(c *fiber.Ctx, serviceID string) error {
	id, err := uuid.Parse(serviceID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "serviceId must be a valid uuid"})
	}

	bundle, err := s.drafts.GetDraft(c.Context(), id)
	if err != nil {
		return draftErrorResponse(c, err)
	}
	return c.JSON(bundle)
}

// PatchServiceDraftCard applies a card edit to the service's current draft.
// The row_version query parameter must match the stored draft.
func (s *APIServer) PatchServiceDraftCard(c *fiber.Ctx, serviceID string) error {
	id, rowVersion, err := draftWriteParams(c, serviceID)
	if err != nil {
		return draftParamsResponse(c, err)
	}

	var card models.ServiceCard
	if err := c.BodyParser(&card); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid card payload"})
	}

	draft, err := s.drafts.PatchCard(c.Context(), id, card, rowVersion)
	if err != nil {
		return draftErrorResponse(c, err)
	}
	return c.JSON(draft)
}

// PatchServiceDraftPricing applies a pricing edit under the same concurrency
// contract as the card patch.
func (s *APIServer) PatchServiceDraftPricing(c *fiber.Ctx, serviceID string) error {
	id, rowVersion, err := draftWriteParams(c, serviceID)
	if err != nil {
		return draftParamsResponse(c, err)
	}

	var pricing models.ServicePricing
	if err := c.BodyParser(&pricing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid pricing payload"})
	}

	draft, err := s.drafts.PatchPricing(c.Context(), id, pricing, rowVersion)
	if err != nil {
		return draftErrorResponse(c, err)
	}
	return c.JSON(draft)
}

// PatchServiceDraftFunnel applies a funnel edit under the same concurrency
// contract as the card patch.
func (s *APIServer) PatchServiceDraftFunnel(c *fiber.Ctx, serviceID string) error {
	id, rowVersion, err := draftWriteParams(c, serviceID)
	if err != nil {
		return draftParamsResponse(c, err)
	}

	var funnel models.ServiceFunnel
	if err := c.BodyParser(&funnel); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid funnel payload"})
	}

	draft, err := s.drafts.PatchFunnel(c.Context(), id, funnel, rowVersion)
	if err != nil {
		return draftErrorResponse(c, err)
	}
	return c.JSON(draft)
}

// PublishServiceVersion promotes a draft to the live published version.
// Re-publishing an already published version is a no-op so UI retries are
// safe.
func (s *APIServer) PublishServiceVersion(c *fiber.Ctx, draftID string) error {
	id, rowVersion, err := draftWriteParams(c, draftID)
	if err != nil {
		return draftParamsResponse(c, err)
	}

	published, err := s.drafts.Publish(c.Context(), id, rowVersion)
	if err != nil {
		return draftErrorResponse(c, err)
	}
	return c.JSON(published)
}

var (
	errInvalidDraftID     = errors.New("id must be a valid uuid")
	errRowVersionRequired = errors.New("row_version query parameter is required")
)

// draftWriteParams validates the id and row_version of a draft write. It
// never writes to the response itself: a JSON call that serializes cleanly
// returns nil, so using its result as the rejection signal would let the
// handler keep running with zero values. Callers must treat any non-nil
// error as a 400 and stop.
func draftWriteParams(c *fiber.Ctx, rawID string) (uuid.UUID, int, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, 0, errInvalidDraftID
	}
	rowVersion := c.QueryInt("row_version", -1)
	if rowVersion < 1 {
		return uuid.Nil, 0, errRowVersionRequired
	}
	return id, rowVersion, nil
}

func draftParamsResponse(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
}

// draftErrorResponse maps draft service errors onto HTTP statuses. Conflicts
// carry both versions so clients can re-fetch and retry; validation failures
// list every offending field.
func draftErrorResponse(c *fiber.Ctx, err error) error {
	var conflict *drafts.VersionConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(ConflictResponse{
			Error:    "version_conflict",
			Message:  "Draft was modified since you loaded it. Re-fetch and retry.",
			Expected: conflict.Expected,
			Actual:   conflict.Actual,
		})
	}

	var validation *drafts.ValidationError
	if errors.As(err, &validation) {
		fields := make([]FieldIssue, 0, len(validation.Fields))
		for _, f := range validation.Fields {
			fields = append(fields, FieldIssue{Path: f.Path, Message: f.Message})
		}
		return c.Status(fiber.StatusBadRequest).JSON(ValidationResponse{
			Error:  "validation_failed",
			Fields: fields,
		})
	}

	switch {
	case errors.Is(err, drafts.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No such service or version"})
	case errors.Is(err, drafts.ErrAuthRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	case errors.Is(err, drafts.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin role required"})
	case errors.Is(err, drafts.ErrNotEditable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not_editable", "message": "Version is past the draft state"})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": "Persistence failure, try again"})
	}
}
