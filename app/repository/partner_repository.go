package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
)

// partnerRepository implements the PartnerRepository interface
type partnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository creates a new partner repository instance
func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

// Create creates a new co-pay partner
func (r *partnerRepository) Create(partner *models.VendorPartner) error {
	return r.db.Create(partner).Error
}

// GetByID retrieves a partner by ID
func (r *partnerRepository) GetByID(id uuid.UUID) (*models.VendorPartner, error) {
	var partner models.VendorPartner
	err := r.db.First(&partner, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// GetActive retrieves all active partners in creation order. The eligibility
// engine evaluates them in this order, so it must be deterministic.
func (r *partnerRepository) GetActive() ([]models.VendorPartner, error) {
	var partners []models.VendorPartner
	err := r.db.Where("active = ?", true).Order("created_at ASC, id ASC").Find(&partners).Error
	return partners, err
}

// List retrieves a paginated list of partners
func (r *partnerRepository) List(offset, limit int) ([]models.VendorPartner, error) {
	var partners []models.VendorPartner
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&partners).Error
	return partners, err
}

// Update updates an existing partner
func (r *partnerRepository) Update(partner *models.VendorPartner) error {
	return r.db.Save(partner).Error
}

// Delete soft deletes a partner
func (r *partnerRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.VendorPartner{}, "id = ?", id).Error
}

// Count returns the total number of partners
func (r *partnerRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.VendorPartner{}).Count(&count).Error
	return count, err
}
