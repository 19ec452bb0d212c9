package controllers

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorstep-market/doorstep/internal/pkg/security"
)

func TestBookingActionURL(t *testing.T) {
	t.Setenv("APP_SECRET", "test-secret")
	t.Setenv("PUBLIC_DOMAIN", "https://doorstep.test")

	actionURL, err := bookingActionURL(42, "7c9e6679-7425-40de-944b-e07fc1f90ae7", security.ActionCancelBooking)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(actionURL, "https://doorstep.test/bookings/action?token="))

	parsed, err := url.Parse(actionURL)
	require.NoError(t, err)

	claims, err := security.VerifyActionToken(parsed.Query().Get("token"), "test-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", claims.BookingID)
	assert.Equal(t, security.ActionCancelBooking, claims.Action)
}
