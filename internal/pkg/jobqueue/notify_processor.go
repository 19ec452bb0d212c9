package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/mail"
)

// EnqueueBookingNotificationJob enqueues a lifecycle email for a booking
func (q *Queue) EnqueueBookingNotificationJob(bookingID, kind string) (*Job, error) {
	payload := BookingNotificationJobPayload{
		BookingID: bookingID,
		Kind:      kind,
	}
	return q.EnqueueJob(JobTypeBookingNotification, payload.ToMap())
}

// processBookingNotificationJob sends the booking email for a lifecycle event
func (q *Queue) processBookingNotificationJob(ctx context.Context, job *Job) error {
	_ = ctx
	payload, perr := BookingNotificationJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse booking notification payload: %w", perr)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var booking models.Booking
	if err := db.First(&booking, "id = ?", payload.BookingID).Error; err != nil {
		// Booking deleted before the email went out; nothing to do
		log.Infof("[BookingNotification] Booking %s not found, skipping", payload.BookingID)
		return nil
	}

	var user models.User
	if err := db.First(&user, booking.UserID).Error; err != nil {
		return fmt.Errorf("failed to load user %d: %w", booking.UserID, err)
	}

	var service models.Service
	if err := db.First(&service, "id = ?", booking.ServiceID).Error; err != nil {
		return fmt.Errorf("failed to load service %s: %w", booking.ServiceID, err)
	}

	subject, body := renderBookingMail(payload.Kind, &booking, &user, &service)
	if subject == "" {
		log.Warnf("[BookingNotification] Unknown kind %q for booking %s", payload.Kind, booking.ID)
		return nil
	}

	if err := mail.SendMail(user.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send booking mail: %w", err)
	}

	log.Infof("[BookingNotification] Sent %s mail for booking %s to %s", payload.Kind, booking.ID, user.Email)
	return nil
}

func renderBookingMail(kind string, booking *models.Booking, user *models.User, service *models.Service) (string, string) {
	when := "to be scheduled"
	if booking.ScheduledAt != nil {
		when = booking.ScheduledAt.Format("Monday, Jan 2 2006 at 15:04")
	}

	switch kind {
	case models.BookingStatusConfirmed:
		return fmt.Sprintf("Your booking for %s is confirmed", service.VendorName),
			fmt.Sprintf("<p>Hi %s,</p><p>Your booking for <strong>%s</strong> is confirmed (%s).</p><p>Booking reference: %s</p>",
				user.Name, service.VendorName, when, booking.ID)
	case models.BookingStatusCancelled:
		return fmt.Sprintf("Your booking for %s was cancelled", service.VendorName),
			fmt.Sprintf("<p>Hi %s,</p><p>Your booking for <strong>%s</strong> has been cancelled.</p><p>Booking reference: %s</p>",
				user.Name, service.VendorName, booking.ID)
	case models.BookingStatusCompleted:
		return fmt.Sprintf("Your %s service is complete", service.VendorName),
			fmt.Sprintf("<p>Hi %s,</p><p>Your booking with <strong>%s</strong> is complete. Thanks for using Doorstep.</p><p>Booking reference: %s</p>",
				user.Name, service.VendorName, booking.ID)
	default:
		return "", ""
	}
}
