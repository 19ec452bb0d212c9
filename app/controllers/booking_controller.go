package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/app/repository"
	"github.com/doorstep-market/doorstep/internal/pkg/constants"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/eligibility"
	"github.com/doorstep-market/doorstep/internal/pkg/entitlements"
	"github.com/doorstep-market/doorstep/internal/pkg/env"
	"github.com/doorstep-market/doorstep/internal/pkg/jobqueue"
	"github.com/doorstep-market/doorstep/internal/pkg/pricing"
	"github.com/doorstep-market/doorstep/internal/pkg/security"
	"github.com/doorstep-market/doorstep/internal/pkg/usercontext"
)

// ActionTokenTTL is how long booking email action links stay valid.
const ActionTokenTTL = 7 * 24 * time.Hour

type createBookingRequest struct {
	ServiceID   string     `json:"service_id"`
	TierID      string     `json:"tier_id"`
	Mode        string     `json:"mode"`
	PartnerID   string     `json:"partner_id"`
	City        string     `json:"city"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Notes       string     `json:"notes"`
}

// HandleCreateBooking books a tier of a published service for the current
// agent. The price is computed server-side through the quote engine; client
// supplied prices are never trusted.
func HandleCreateBooking(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	appSettings := models.GetAppSettings()
	if appSettings != nil && !appSettings.IsBookingEnabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "bookings_disabled", "message": "Booking is temporarily disabled"})
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "service_id must be a valid uuid"})
	}
	if req.TierID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "tier_id is required"})
	}
	if req.Mode == "" {
		req.Mode = models.PricingModeRetail
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user settings"})
	}

	if !entitlements.CanUseMode(settings, appSettings, req.Mode) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "mode_not_allowed", "message": "Pricing mode not available on your plan"})
	}

	// Per-plan cap on concurrently open bookings.
	plan := entitlements.Plan(settings.Plan)
	if maxActive := entitlements.MaxActiveBookings(plan); maxActive > 0 {
		active, err := repository.GetGlobalFactory().GetBookingRepository().CountActiveByUserID(userCtx.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to check booking limit"})
		}
		if active >= int64(maxActive) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "booking_limit_reached",
				"message": fmt.Sprintf("Your plan allows %d open bookings", maxActive),
			})
		}
	}

	svcRepo := repository.GetGlobalFactory().GetServiceRepository()
	service, err := svcRepo.GetByID(serviceID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}
	if !service.Active || !service.IsPublished() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}
	version, err := svcRepo.GetPublishedVersion(service.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Service not found"})
	}
	tier, ok := version.Pricing.Tier(req.TierID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tier_not_found", "message": "No such pricing tier"})
	}

	in := pricing.Input{
		Mode:          req.Mode,
		Currency:      version.Pricing.Currency,
		Tier:          tier,
		City:          req.City,
		PointsBalance: settings.PointsBalance,
		Agent:         eligibility.AgentProfile{DealsLast12m: settings.AgentDeals()},
		ServiceID:     service.ID,
	}
	if in.City == "" {
		in.City = settings.HomeMarket
	}

	var partnerID *uuid.UUID
	if req.Mode == models.PricingModeCopay {
		pid, err := uuid.Parse(req.PartnerID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "partner_id must be a valid uuid for co-pay bookings"})
		}
		row, err := repository.GetGlobalFactory().GetPartnerRepository().GetByID(pid)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "partner_not_found", "message": "Partner not found"})
		}
		if !row.Active {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "partner_ineligible", "message": "Partner is not active"})
		}
		partner := eligibility.FromModel(row)
		in.Partner = &partner
		partnerID = &pid
	}

	quote, err := pricing.BuildQuote(in)
	if err != nil {
		return quoteErrorResponse(c, err)
	}

	// Points are debited up front with a guarded decrement so two concurrent
	// bookings can never spend the same balance twice.
	if req.Mode == models.PricingModePoints {
		res := db.Model(&models.UserSettings{}).
			Where("user_id = ? AND points_balance >= ?", userCtx.UserID, quote.PointsRequired).
			UpdateColumn("points_balance", gorm.Expr("points_balance - ?", quote.PointsRequired))
		if res.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to redeem points"})
		}
		if res.RowsAffected == 0 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "insufficient_points", "message": "Points balance does not cover this tier"})
		}
	}

	booking := models.Booking{
		UserID:      userCtx.UserID,
		ServiceID:   service.ID,
		VersionID:   version.ID,
		TierID:      tier.ID,
		PricingMode: req.Mode,
		PartnerID:   partnerID,
		Status:      models.BookingStatusPending,
		ScheduledAt: req.ScheduledAt,
		PriceCents:  quote.DueCents,
		Currency:    quote.Currency,
		Notes:       req.Notes,
	}
	if err := booking.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := repository.GetGlobalFactory().GetBookingRepository().Create(&booking); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create booking"})
	}

	ipv4, _ := GetClientIP(c)
	log.Infof("booking %s created by user %d (%s, %s) from %s", booking.ID, userCtx.UserID, req.Mode, tier.ID, ipv4)

	response := fiber.Map{
		"booking": booking,
		"quote":   quote,
	}
	if url, err := bookingActionURL(userCtx.UserID, booking.ID.String(), security.ActionCancelBooking); err == nil {
		response["cancel_url"] = url
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

// HandleListBookings lists the current agent's bookings, newest first.
func HandleListBookings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	offset, limit := paginationParams(c, 20, 100)
	bookings, err := repository.GetGlobalFactory().GetBookingRepository().GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load bookings"})
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

// HandleGetBooking returns one booking owned by the current agent.
func HandleGetBooking(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Booking id must be a valid uuid"})
	}
	booking, err := repository.GetGlobalFactory().GetBookingRepository().GetByID(id)
	if err != nil || booking.UserID != userCtx.UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Booking not found"})
	}
	return c.JSON(booking)
}

// HandleCancelBooking cancels an open booking owned by the current agent.
func HandleCancelBooking(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Booking id must be a valid uuid"})
	}

	booking, err := repository.GetGlobalFactory().GetBookingRepository().GetByID(id)
	if err != nil || booking.UserID != userCtx.UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Booking not found"})
	}

	return cancelBooking(c, booking)
}

// HandleBookingAction processes a signed action link from a notification
// email. No session is required; the token authorizes exactly one action on
// exactly one booking.
func HandleBookingAction(c *fiber.Ctx) error {
	secret := env.GetEnv("APP_SECRET", "")
	claims, err := security.VerifyActionToken(c.Query("token"), secret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid or expired action link"})
	}

	id, err := uuid.Parse(claims.BookingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid booking reference"})
	}
	booking, err := repository.GetGlobalFactory().GetBookingRepository().GetByID(id)
	if err != nil || booking.UserID != claims.UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Booking not found"})
	}

	switch claims.Action {
	case security.ActionCancelBooking:
		return cancelBooking(c, booking)
	case security.ActionConfirmBooking:
		if !booking.CanTransitionTo(models.BookingStatusConfirmed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Booking can no longer be confirmed"})
		}
		if err := repository.GetGlobalFactory().GetBookingRepository().UpdateStatus(booking.ID, models.BookingStatusConfirmed); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to confirm booking"})
		}
		enqueueBookingMail(booking.ID.String(), models.BookingStatusConfirmed)
		return c.JSON(fiber.Map{"message": "Booking confirmed", "status": models.BookingStatusConfirmed})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown action"})
	}
}

func cancelBooking(c *fiber.Ctx, booking *models.Booking) error {
	if !booking.CanTransitionTo(models.BookingStatusCancelled) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Booking can no longer be cancelled"})
	}

	if err := repository.GetGlobalFactory().GetBookingRepository().UpdateStatus(booking.ID, models.BookingStatusCancelled); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to cancel booking"})
	}

	refundBookingPoints(booking)
	enqueueBookingMail(booking.ID.String(), models.BookingStatusCancelled)

	return c.JSON(fiber.Map{"message": "Booking cancelled", "status": models.BookingStatusCancelled})
}

// refundBookingPoints credits back the points spent on a points-mode booking.
// The amount is recomputed from the booked version's tier, which is retained
// even after newer publishes.
func refundBookingPoints(booking *models.Booking) {
	if booking.PricingMode != models.PricingModePoints {
		return
	}
	db := database.GetDB()

	var version models.ServiceVersion
	if err := db.First(&version, "id = ?", booking.VersionID).Error; err != nil {
		log.Errorf("points refund for booking %s: version %s not found: %v", booking.ID, booking.VersionID, err)
		return
	}
	tier, ok := version.Pricing.Tier(booking.TierID)
	if !ok {
		log.Errorf("points refund for booking %s: tier %s not found", booking.ID, booking.TierID)
		return
	}

	points := tier.PriceCents * pricing.PointsPerCent
	if err := db.Model(&models.UserSettings{}).
		Where("user_id = ?", booking.UserID).
		UpdateColumn("points_balance", gorm.Expr("points_balance + ?", points)).Error; err != nil {
		log.Errorf("points refund for booking %s failed: %v", booking.ID, err)
	}
}

func enqueueBookingMail(bookingID, kind string) {
	if _, err := jobqueue.GetManager().GetQueue().EnqueueBookingNotificationJob(bookingID, kind); err != nil {
		log.Errorf("failed to enqueue %s mail for booking %s: %v", kind, bookingID, err)
	}
}

func bookingActionURL(userID uint, bookingID, action string) (string, error) {
	secret := env.GetEnv("APP_SECRET", "")
	token, err := security.GenerateActionToken(userID, bookingID, action, ActionTokenTTL, secret)
	if err != nil {
		return "", err
	}
	baseURL := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	return fmt.Sprintf("%s%s?token=%s", baseURL, constants.BookingActionRoute, token), nil
}
