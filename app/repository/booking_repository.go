package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
)

// bookingRepository implements the BookingRepository interface
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository instance
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking
func (r *bookingRepository) Create(booking *models.Booking) error {
	return r.db.Create(booking).Error
}

// GetByID retrieves a booking by ID
func (r *bookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByUserID retrieves a user's bookings, newest first
func (r *bookingRepository) GetByUserID(userID uint, offset, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// CountActiveByUserID counts a user's pending and confirmed bookings
func (r *bookingRepository) CountActiveByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).
		Where("user_id = ? AND status IN ?", userID, []string{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Count(&count).Error
	return count, err
}

// List retrieves a paginated list of all bookings
func (r *bookingRepository) List(offset, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&bookings).Error
	return bookings, err
}

// ListByStatus retrieves a paginated list of bookings in one status
func (r *bookingRepository) ListByStatus(status string, offset, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("status = ?", status).Order("created_at DESC").Offset(offset).Limit(limit).Find(&bookings).Error
	return bookings, err
}

// Update updates an existing booking
func (r *bookingRepository) Update(booking *models.Booking) error {
	return r.db.Save(booking).Error
}

// UpdateStatus updates only the status column of a booking
func (r *bookingRepository) UpdateStatus(id uuid.UUID, status string) error {
	return r.db.Model(&models.Booking{}).Where("id = ?", id).Update("status", status).Error
}

// Count returns the total number of bookings
func (r *bookingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of bookings in one status
func (r *bookingRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// GetDailyStats returns daily booking counts for a date range
func (r *bookingRepository) GetDailyStats(startDate, endDate time.Time) ([]DailyStats, error) {
	var results []struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	err := r.db.Model(&models.Booking{}).
		Select("to_char(created_at, 'YYYY-MM-DD') as date, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("to_char(created_at, 'YYYY-MM-DD')").
		Order("date").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get daily booking stats: %w", err)
	}

	dailyStats := make([]DailyStats, len(results))
	for i, result := range results {
		dailyStats[i] = DailyStats{
			Date:  result.Date,
			Count: int(result.Count),
		}
	}

	return dailyStats, nil
}
