package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Pricing modes a booking can be priced under.
const (
	PricingModeRetail = "retail"
	PricingModePro    = "pro"
	PricingModeCopay  = "copay"
	PricingModePoints = "points"
)

// Booking is one scheduled purchase of a service tier by an agent.
type Booking struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	ServiceID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"service_id"`
	VersionID   uuid.UUID      `gorm:"type:uuid;not null" json:"version_id"`
	TierID      string         `gorm:"type:varchar(64);not null" json:"tier_id" validate:"required,min=1,max=64"`
	PricingMode string         `gorm:"type:varchar(16);not null;default:'retail'" json:"pricing_mode" validate:"oneof=retail pro copay points"`
	PartnerID   *uuid.UUID     `gorm:"type:uuid;default:null" json:"partner_id,omitempty"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending confirmed completed cancelled"`
	ScheduledAt *time.Time     `gorm:"type:timestamp;default:null" json:"scheduled_at,omitempty"`
	PriceCents  int64          `gorm:"not null;default:0" json:"price_cents" validate:"gte=0"`
	Currency    string         `gorm:"type:char(3);not null;default:'USD'" json:"currency" validate:"len=3"`
	Notes       string         `gorm:"type:text" json:"notes" validate:"max=2000"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Booking) Validate() error {
	v := validator.New()
	return v.Struct(b)
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

var bookingStatusRank = map[string]int{
	BookingStatusPending:   0,
	BookingStatusConfirmed: 1,
	BookingStatusCompleted: 2,
}

// CanTransitionTo reports whether an admin status change is allowed.
// Cancellation is reachable from pending and confirmed; completed and
// cancelled are terminal.
func (b *Booking) CanTransitionTo(status string) bool {
	if b.Status == BookingStatusCompleted || b.Status == BookingStatusCancelled {
		return false
	}
	if status == BookingStatusCancelled {
		return true
	}
	cur, ok := bookingStatusRank[b.Status]
	if !ok {
		return false
	}
	next, ok := bookingStatusRank[status]
	if !ok {
		return false
	}
	return next > cur
}
