package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/jobqueue"
)

type bookingStatusRequest struct {
	Status string `json:"status"`
}

// HandleBookings lists bookings for the admin console, optionally filtered by
// status.
func (ac *AdminController) HandleBookings(c *fiber.Ctx) error {
	offset, limit := paginationParams(c, 20, 100)

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		count, err := ac.repos.Booking.CountByStatus(status)
		if err != nil {
			return ac.handleError(c, "Failed to count bookings", err)
		}
		bookings, err := ac.repos.Booking.ListByStatus(status, offset, limit)
		if err != nil {
			return ac.handleError(c, "Failed to load bookings", err)
		}
		return c.JSON(fiber.Map{"bookings": bookings, "total": count, "status": status})
	}

	total, err := ac.repos.Booking.Count()
	if err != nil {
		return ac.handleError(c, "Failed to count bookings", err)
	}
	bookings, err := ac.repos.Booking.List(offset, limit)
	if err != nil {
		return ac.handleError(c, "Failed to load bookings", err)
	}
	return c.JSON(fiber.Map{"bookings": bookings, "total": total})
}

// HandleBookingStatusUpdate moves a booking along its lifecycle. Completing a
// booking triggers a deals recount so co-pay thresholds pick it up without
// waiting for the scheduled run.
func (ac *AdminController) HandleBookingStatusUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Booking id must be a valid uuid"})
	}

	var req bookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	status := strings.TrimSpace(req.Status)
	switch status {
	case models.BookingStatusConfirmed, models.BookingStatusCompleted, models.BookingStatusCancelled:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "status must be confirmed, completed or cancelled"})
	}

	booking, err := ac.repos.Booking.GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Booking not found"})
	}
	if !booking.CanTransitionTo(status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": "Transition from " + booking.Status + " to " + status + " is not allowed",
		})
	}

	if err := ac.repos.Booking.UpdateStatus(booking.ID, status); err != nil {
		return ac.handleError(c, "Failed to update booking status", err)
	}

	if status == models.BookingStatusCancelled {
		refundBookingPoints(booking)
	}
	enqueueBookingMail(booking.ID.String(), status)

	if status == models.BookingStatusCompleted {
		go func() {
			if err := jobqueue.GetManager().RunDealsRecountOnce(); err != nil {
				log.Errorf("deals recount after booking completion failed: %v", err)
			}
		}()
	}

	return c.JSON(fiber.Map{"message": "Booking updated", "status": status})
}
