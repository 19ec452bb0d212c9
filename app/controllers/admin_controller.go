package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/app/repository"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/entitlements"
)

// AdminController handles admin-related HTTP requests using repository pattern
type AdminController struct {
	repos *repository.Repositories
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories) *AdminController {
	return &AdminController{
		repos: repos,
	}
}

func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("%s: %v", message, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": message})
}

// HandleDashboard returns aggregate marketplace counts plus seven-day series
// for the admin dashboard charts.
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get user count", err)
	}
	totalServices, err := ac.repos.Service.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get service count", err)
	}
	totalPartners, err := ac.repos.Partner.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get partner count", err)
	}
	totalBookings, err := ac.repos.Booking.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get booking count", err)
	}

	bookingsByStatus := fiber.Map{}
	for _, status := range []string{
		models.BookingStatusPending,
		models.BookingStatusConfirmed,
		models.BookingStatusCompleted,
		models.BookingStatusCancelled,
	} {
		count, err := ac.repos.Booking.CountByStatus(status)
		if err != nil {
			return ac.handleError(c, "Failed to get booking status counts", err)
		}
		bookingsByStatus[status] = count
	}

	recentUsers, err := ac.repos.User.List(0, 5)
	if err != nil {
		return ac.handleError(c, "Failed to get recent users", err)
	}
	recent := make([]fiber.Map, 0, len(recentUsers))
	for i := range recentUsers {
		recent = append(recent, fiber.Map{
			"id":         recentUsers[i].ID,
			"name":       recentUsers[i].Name,
			"email":      recentUsers[i].Email,
			"status":     recentUsers[i].Status,
			"created_at": recentUsers[i].CreatedAt,
		})
	}

	end := time.Now()
	start := end.AddDate(0, 0, -6)
	userSeries, err := ac.repos.User.GetDailyStats(start, end)
	if err != nil {
		return ac.handleError(c, "Failed to get user statistics", err)
	}
	bookingSeries, err := ac.repos.Booking.GetDailyStats(start, end)
	if err != nil {
		return ac.handleError(c, "Failed to get booking statistics", err)
	}

	return c.JSON(fiber.Map{
		"totals": fiber.Map{
			"users":    totalUsers,
			"services": totalServices,
			"partners": totalPartners,
			"bookings": totalBookings,
		},
		"bookings_by_status": bookingsByStatus,
		"recent_users":       recent,
		"charts": fiber.Map{
			"users":    userSeries,
			"bookings": bookingSeries,
		},
	})
}

type adminUser struct {
	ID                 uint       `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	Status             string     `json:"status"`
	BrokerageName      string     `json:"brokerage_name"`
	LicenseNumber      string     `json:"license_number"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	BookingCount       int64      `json:"booking_count"`
	ActiveBookingCount int64      `json:"active_booking_count"`
	LifetimeSpendCents int64      `json:"lifetime_spend_cents"`
}

// HandleUsers lists users with booking statistics. The q parameter switches
// to a name/email search without statistics.
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		found, err := ac.repos.User.Search(q)
		if err != nil {
			return ac.handleError(c, "Failed to search users", err)
		}
		users := make([]adminUser, 0, len(found))
		for i := range found {
			users = append(users, adminUserFromModel(&found[i], nil))
		}
		return c.JSON(fiber.Map{"users": users, "query": q})
	}

	offset, limit := paginationParams(c, 20, 100)
	total, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get user count", err)
	}
	rows, err := ac.repos.User.GetWithStats(offset, limit)
	if err != nil {
		return ac.handleError(c, "Failed to get users with statistics", err)
	}

	users := make([]adminUser, 0, len(rows))
	for i := range rows {
		users = append(users, adminUserFromModel(&rows[i].User, &rows[i]))
	}

	return c.JSON(fiber.Map{"users": users, "total": total})
}

func adminUserFromModel(u *models.User, stats *repository.UserWithStats) adminUser {
	out := adminUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Status:        u.Status,
		BrokerageName: u.BrokerageName,
		LicenseNumber: u.LicenseNumber,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
	if stats != nil {
		out.BookingCount = stats.BookingCount
		out.ActiveBookingCount = stats.ActiveCount
		out.LifetimeSpendCents = stats.LifetimeCents
	}
	return out
}

type adminUserUpdateRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
	Plan   *string `json:"plan"`
}

// HandleUserUpdate changes a user's role, status or plan.
func (ac *AdminController) HandleUserUpdate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}

	var req adminUserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	if req.Role != nil {
		role := strings.TrimSpace(*req.Role)
		if role != models.ROLE_USER && role != models.ROLE_ADMIN {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "role must be user or admin"})
		}
		user.Role = role
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		switch status {
		case models.STATUS_ACTIVE, models.STATUS_INACTIVE, models.STATUS_DISABLED:
			user.Status = status
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "status must be active, inactive or disabled"})
		}
	}
	if err := ac.repos.User.Update(user); err != nil {
		return ac.handleError(c, "Failed to update user", err)
	}

	if req.Plan != nil {
		plan := entitlements.Plan(strings.ToLower(strings.TrimSpace(*req.Plan)))
		switch plan {
		case entitlements.PlanFree, entitlements.PlanPro, entitlements.PlanTeam:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "plan must be free, pro or team"})
		}
		db := database.GetDB()
		settings, err := models.GetOrCreateUserSettings(db, user.ID)
		if err != nil {
			return ac.handleError(c, "Failed to load user settings", err)
		}
		settings.Plan = string(plan)
		if err := db.Save(settings).Error; err != nil {
			return ac.handleError(c, "Failed to save user plan", err)
		}
	}

	return c.JSON(fiber.Map{"message": "User updated"})
}

// HandleUserDelete soft-deletes a user account.
func (ac *AdminController) HandleUserDelete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}
	if _, err := ac.repos.User.GetByID(uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}
	if err := ac.repos.User.Delete(uint(id)); err != nil {
		return ac.handleError(c, "Failed to delete user", err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

// HandleUserResendActivation regenerates and mails a fresh activation token.
func (ac *AdminController) HandleUserResendActivation(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}
	if user.Status != models.STATUS_INACTIVE {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "User does not need activation"})
	}

	if err := user.GenerateActivationToken(); err != nil {
		return ac.handleError(c, "Failed to generate activation token", err)
	}
	if err := ac.repos.User.Update(user); err != nil {
		return ac.handleError(c, "Failed to save activation token", err)
	}
	go sendActivationMail(user)

	return c.JSON(fiber.Map{"message": "Activation mail sent"})
}
