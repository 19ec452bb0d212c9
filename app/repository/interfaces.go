package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	GetStatsByUserID(userID uint) (*UserStats, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetWithStats(offset, limit int) ([]UserWithStats, error)
	GetDailyStats(startDate, endDate time.Time) ([]DailyStats, error)
}

// PartnerRepository defines the interface for co-pay partner operations
type PartnerRepository interface {
	Create(partner *models.VendorPartner) error
	GetByID(id uuid.UUID) (*models.VendorPartner, error)
	GetActive() ([]models.VendorPartner, error)
	List(offset, limit int) ([]models.VendorPartner, error)
	Update(partner *models.VendorPartner) error
	Delete(id uuid.UUID) error
	Count() (int64, error)
}

// ServiceRepository defines the interface for storefront service operations
type ServiceRepository interface {
	Create(service *models.Service) error
	GetByID(id uuid.UUID) (*models.Service, error)
	GetBySlug(slug string) (*models.Service, error)
	GetPublished(offset, limit int) ([]models.Service, error)
	GetPublishedVersion(serviceID uuid.UUID) (*models.ServiceVersion, error)
	List(offset, limit int) ([]models.Service, error)
	Update(service *models.Service) error
	Delete(id uuid.UUID) error
	Count() (int64, error)
	SlugExists(slug string) (bool, error)
}

// BookingRepository defines the interface for booking operations
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id uuid.UUID) (*models.Booking, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Booking, error)
	CountActiveByUserID(userID uint) (int64, error)
	List(offset, limit int) ([]models.Booking, error)
	ListByStatus(status string, offset, limit int) ([]models.Booking, error)
	Update(booking *models.Booking) error
	UpdateStatus(id uuid.UUID, status string) error
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	GetDailyStats(startDate, endDate time.Time) ([]DailyStats, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// UserWithStats represents a user with booking statistics
type UserWithStats struct {
	User          models.User
	BookingCount  int64
	ActiveCount   int64
	LifetimeCents int64
}

// UserStats provides aggregated counts for a single user.
type UserStats struct {
	BookingCount  int64
	ActiveCount   int64
	LifetimeCents int64
}

// DailyStats is one day's count in an admin dashboard series.
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Partner PartnerRepository
	Service ServiceRepository
	Booking BookingRepository
	Setting SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Partner: NewPartnerRepository(db),
		Service: NewServiceRepository(db),
		Booking: NewBookingRepository(db),
		Setting: NewSettingRepository(db),
	}
}
