package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorPartner is a co-pay-eligible business partner. Created and edited by
// backend administrators; read-only to the eligibility engine, which consumes
// it through the canonical adapter shape.
type VendorPartner struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name                 string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Markets              StringList     `gorm:"type:jsonb;not null" json:"markets"`
	CopayEnabled         bool           `gorm:"default:false" json:"copay_enabled"`
	MinAgentDealsPerYear int            `gorm:"not null;default:0" json:"min_agent_deals_per_year" validate:"gte=0"`
	AllowedServiceIDs    UUIDList       `gorm:"type:jsonb;not null" json:"allowed_service_ids"`
	ProhibitedServiceIDs UUIDList       `gorm:"type:jsonb;not null" json:"prohibited_service_ids"`
	SharePct             int            `gorm:"not null;default:0" json:"share_pct" validate:"gte=0,lte=100"`
	Active               bool           `gorm:"default:true" json:"active"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *VendorPartner) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

// BeforeCreate assigns a UUID when the admin console creates a partner
// without one.
func (p *VendorPartner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
