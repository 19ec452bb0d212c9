package constants

// Static route constants
const (
	PublicRoute    = "/"
	APIV1Route     = "/api/v1"
	ShareLinkRoute = "/s"
	// Booking action links embedded in notification mails
	BookingActionRoute = "/bookings/action"
)
