package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is one marketplace listing. The storefront only ever renders the
// content referenced by PublishedVersionID; editing happens on the current
// draft row in service_versions.
type Service struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Slug               string         `gorm:"type:varchar(190);uniqueIndex;not null" json:"slug" validate:"required,min=2,max=190"`
	VendorName         string         `gorm:"type:varchar(150)" json:"vendor_name"`
	Category           string         `gorm:"type:varchar(100);not null" json:"category" validate:"required,min=2,max=100"`
	PublishedVersionID *uuid.UUID     `gorm:"type:uuid;default:null" json:"published_version_id,omitempty"`
	Active             bool           `gorm:"default:true" json:"active"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Service) Validate() error {
	v := validator.New()
	return v.Struct(s)
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsPublished reports whether the service has live storefront content.
func (s *Service) IsPublished() bool {
	return s.PublishedVersionID != nil
}
