package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/session"
)

// HandleOAuthCallback completes the provider flow and logs the user in
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("OAuth failed: %v", err)}).Redirect("/login", fiber.StatusSeeOther)
	}

	db := database.GetDB()

	// Try to find existing provider account
	var pa models.ProviderAccount
	res := db.Where("provider = ? AND provider_user_id = ?", u.Provider, u.UserID).First(&pa)

	var appUser models.User
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		// Optional email match if provided
		if u.Email != "" {
			_ = db.Where("email = ?", u.Email).First(&appUser).Error
		}
		if appUser.ID == 0 {
			// Create new user; password is a random placeholder since the
			// model requires one (not used for login)
			placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
			hash, _ := models.HashPassword(placeholder)
			email := u.Email
			if email == "" {
				// Ensure a unique, non-empty email to satisfy the unique index
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			appUser = models.User{
				Name:      firstNonEmpty(u.Name, u.NickName, u.Email, "Agent"),
				Email:     email,
				Password:  hash,
				AvatarURL: u.AvatarURL,
				Status:    models.STATUS_ACTIVE,
			}
			if err := db.Create(&appUser).Error; err != nil {
				return flash.WithError(c, fiber.Map{"type": "error", "message": "Account creation failed"}).Redirect("/login", fiber.StatusSeeOther)
			}
		}
		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		pa = models.ProviderAccount{
			UserID:         appUser.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			AccessToken:    u.AccessToken,
			RefreshToken:   u.RefreshToken,
			ExpiresAt:      exp,
		}
		if err := db.Create(&pa).Error; err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not link provider account"}).Redirect("/login", fiber.StatusSeeOther)
		}
	} else if res.Error == nil {
		// Update tokens
		pa.AccessToken = u.AccessToken
		pa.RefreshToken = u.RefreshToken
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			pa.ExpiresAt = &t
		} else {
			pa.ExpiresAt = nil
		}
		if err := db.Save(&pa).Error; err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not refresh provider tokens"}).Redirect("/login", fiber.StatusSeeOther)
		}
		if err := db.First(&appUser, pa.UserID).Error; err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Linked account not found"}).Redirect("/login", fiber.StatusSeeOther)
		}
	} else {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Login failed"}).Redirect("/login", fiber.StatusSeeOther)
	}

	// Create app session
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Session init failed"}).Redirect("/login", fiber.StatusSeeOther)
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, appUser.ID)
	sess.Set(USER_NAME, appUser.Name)
	sess.Set(USER_IS_ADMIN, appUser.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Session save failed"}).Redirect("/login", fiber.StatusSeeOther)
	}

	// Cache user plan in session for entitlement checks
	if us, err := models.GetOrCreateUserSettings(db, appUser.ID); err == nil && us != nil {
		if us.Plan == "" {
			_ = session.SetSessionValue(c, "user_plan", "free")
		} else {
			_ = session.SetSessionValue(c, "user_plan", us.Plan)
		}
	}

	_ = db.Model(&appUser).UpdateColumn("last_login_at", time.Now()).Error

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Welcome back, " + appUser.Name}).Redirect("/", fiber.StatusSeeOther)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
