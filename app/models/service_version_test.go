package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidVersionTransition(t *testing.T) {
	assert.True(t, ValidVersionTransition(VersionStateDraft, VersionStateSubmitted))
	assert.True(t, ValidVersionTransition(VersionStateDraft, VersionStatePublished))
	assert.True(t, ValidVersionTransition(VersionStateSubmitted, VersionStateApproved))
	assert.True(t, ValidVersionTransition(VersionStatePublished, VersionStateArchived))

	// Forward-only: no regression to an earlier state.
	assert.False(t, ValidVersionTransition(VersionStatePublished, VersionStateDraft))
	assert.False(t, ValidVersionTransition(VersionStateApproved, VersionStateSubmitted))
	assert.False(t, ValidVersionTransition(VersionStateArchived, VersionStatePublished))
	assert.False(t, ValidVersionTransition(VersionStateDraft, VersionStateDraft))
	assert.False(t, ValidVersionTransition("bogus", VersionStatePublished))
}

func TestDefaultDraftContent(t *testing.T) {
	card, pricing, funnel := DefaultDraftContent("inspection")

	assert.Empty(t, card.Tags)
	assert.Empty(t, card.Badges)
	assert.True(t, card.Flags.Active)
	assert.False(t, card.Flags.Verified)
	assert.False(t, card.Flags.Affiliate)
	assert.False(t, card.Flags.Booking)
	assert.Equal(t, "inspection", card.Category)

	if assert.Len(t, pricing.Tiers, 1) {
		assert.Equal(t, "Base Package", pricing.Tiers[0].Name)
		assert.Equal(t, int64(0), pricing.Tiers[0].PriceCents)
	}
	assert.Equal(t, "USD", pricing.Currency)
	assert.Empty(t, funnel.Steps)
}

func TestBookingCanTransitionTo(t *testing.T) {
	b := Booking{Status: BookingStatusPending}
	assert.True(t, b.CanTransitionTo(BookingStatusConfirmed))
	assert.True(t, b.CanTransitionTo(BookingStatusCancelled))

	b.Status = BookingStatusConfirmed
	assert.True(t, b.CanTransitionTo(BookingStatusCompleted))
	assert.False(t, b.CanTransitionTo(BookingStatusPending))

	b.Status = BookingStatusCompleted
	assert.False(t, b.CanTransitionTo(BookingStatusCancelled))

	b.Status = BookingStatusCancelled
	assert.False(t, b.CanTransitionTo(BookingStatusConfirmed))
}
