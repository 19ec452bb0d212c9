package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/app/repository"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/entitlements"
	"github.com/doorstep-market/doorstep/internal/pkg/usercontext"
)

// HandleGetUserAccount returns account information for the authenticated user (API key or session).
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	stats, err := repo.GetStatsByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load statistics"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Database unavailable"})
	}
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user settings"})
	}

	plan := entitlements.Plan(settings.Plan)
	if plan == "" {
		plan = entitlements.PlanFree
	}

	retail, pro, copay, points := entitlements.AllowedPricingModes(plan)
	appSettings := models.GetAppSettings()
	if appSettings != nil && !appSettings.IsCopayEnabled() {
		copay = false
	}

	allowedModes := make([]string, 0, 4)
	if retail {
		allowedModes = append(allowedModes, models.PricingModeRetail)
	}
	if pro {
		allowedModes = append(allowedModes, models.PricingModePro)
	}
	if copay {
		allowedModes = append(allowedModes, models.PricingModeCopay)
	}
	if points {
		allowedModes = append(allowedModes, models.PricingModePoints)
	}

	maxActive := entitlements.MaxActiveBookings(plan)
	var maxActiveValue interface{}
	if maxActive > 0 {
		maxActiveValue = maxActive
	}

	response := fiber.Map{
		"id":                   account.ID,
		"username":             account.Name,
		"email":                account.Email,
		"status":               account.Status,
		"plan":                 string(plan),
		"is_admin":             account.Role == models.ROLE_ADMIN,
		"brokerage_name":       account.BrokerageName,
		"license_number":       account.LicenseNumber,
		"created_at":           account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":        formatTimePtr(account.LastLoginAt),
		"api_key_last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
		"agent": fiber.Map{
			"deals_last_12m": settings.DealsLast12m,
			"points_balance": settings.PointsBalance,
			"home_market":    settings.HomeMarket,
		},
		"stats": fiber.Map{
			"bookings": fiber.Map{
				"count":                stats.BookingCount,
				"active_count":         stats.ActiveCount,
				"lifetime_spend_cents": stats.LifetimeCents,
			},
		},
		"limits": fiber.Map{
			"max_active_bookings":   maxActiveValue,
			"allowed_pricing_modes": allowedModes,
		},
	}

	return c.JSON(response)
}

type profileUpdateRequest struct {
	BrokerageName *string `json:"brokerage_name"`
	LicenseNumber *string `json:"license_number"`
	HomeMarket    *string `json:"home_market"`
}

// HandleUpdateUserProfile updates the agent-facing profile fields. Plan,
// deals count and points balance are never writable here.
func HandleUpdateUserProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req profileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	if req.BrokerageName != nil {
		account.BrokerageName = strings.TrimSpace(*req.BrokerageName)
	}
	if req.LicenseNumber != nil {
		account.LicenseNumber = strings.TrimSpace(*req.LicenseNumber)
	}
	if err := repo.Update(account); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save profile"})
	}

	if req.HomeMarket != nil {
		db := database.GetDB()
		settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user settings"})
		}
		settings.HomeMarket = strings.TrimSpace(*req.HomeMarket)
		if err := db.Save(settings).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save settings"})
		}
	}

	return c.JSON(fiber.Map{"message": "Profile updated"})
}

// HandleUserAPIKeyGenerate issues a fresh API key. The raw secret appears in
// this response only; the database stores the hash.
func HandleUserAPIKeyGenerate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user settings"})
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate API key"})
	}
	if err := db.Save(settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to persist API key"})
	}

	return c.JSON(fiber.Map{
		"api_key":    rawKey,
		"prefix":     settings.APIKeyPrefix,
		"created_at": formatTimePtr(settings.APIKeyCreatedAt),
	})
}

// HandleUserAPIKeyRevoke revokes the active API key.
func HandleUserAPIKeyRevoke(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user settings"})
	}
	if !settings.HasActiveAPIKey() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No active API key"})
	}

	settings.RevokeAPIKey()
	if err := db.Save(settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to revoke API key"})
	}

	return c.JSON(fiber.Map{"message": "API key revoked"})
}
