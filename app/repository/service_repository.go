package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
)

// serviceRepository implements the ServiceRepository interface
type serviceRepository struct {
	db *gorm.DB
}

// NewServiceRepository creates a new service repository instance
func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

// Create creates a new service
func (r *serviceRepository) Create(service *models.Service) error {
	return r.db.Create(service).Error
}

// GetByID retrieves a service by ID
func (r *serviceRepository) GetByID(id uuid.UUID) (*models.Service, error) {
	var service models.Service
	err := r.db.First(&service, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// GetBySlug retrieves a service by its storefront slug
func (r *serviceRepository) GetBySlug(slug string) (*models.Service, error) {
	var service models.Service
	err := r.db.Where("slug = ?", slug).First(&service).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// GetPublished retrieves active services that have a published version
func (r *serviceRepository) GetPublished(offset, limit int) ([]models.Service, error) {
	var services []models.Service
	err := r.db.
		Where("active = ? AND published_version_id IS NOT NULL", true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&services).Error
	return services, err
}

// GetPublishedVersion retrieves the currently published version of a service
func (r *serviceRepository) GetPublishedVersion(serviceID uuid.UUID) (*models.ServiceVersion, error) {
	var version models.ServiceVersion
	err := r.db.
		Where("service_id = ? AND state = ?", serviceID, models.VersionStatePublished).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// List retrieves a paginated list of services regardless of publish state
func (r *serviceRepository) List(offset, limit int) ([]models.Service, error) {
	var services []models.Service
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&services).Error
	return services, err
}

// Update updates an existing service
func (r *serviceRepository) Update(service *models.Service) error {
	return r.db.Save(service).Error
}

// Delete soft deletes a service
func (r *serviceRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Service{}, "id = ?", id).Error
}

// Count returns the total number of services
func (r *serviceRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Service{}).Count(&count).Error
	return count, err
}

// SlugExists checks whether a slug is already taken
func (r *serviceRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Service{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
