package entitlements

import (
	"strings"

	"github.com/doorstep-market/doorstep/app/models"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
	PlanTeam Plan = "team"
)

// AllowedPricingModes returns which checkout pricing modes a plan unlocks.
// Retail is always available; pro-rate and points redemption require a paid
// plan; co-pay eligibility is decided per partner, not per plan, so it is
// reported as available here and filtered later by the eligibility rules.
func AllowedPricingModes(plan Plan) (retail, pro, copay, points bool) {
	switch plan {
	case PlanTeam:
		return true, true, true, true
	case PlanPro:
		return true, true, true, true
	default:
		return true, false, true, false
	}
}

// MaxActiveBookings returns the per-agent cap on concurrently open bookings.
// Zero means unlimited.
func MaxActiveBookings(plan Plan) int {
	switch plan {
	case PlanTeam:
		return 0
	case PlanPro:
		return 25
	default:
		return 5
	}
}

// CanUseMode combines the admin co-pay kill switch, the user's plan and the
// requested pricing mode into a final yes/no.
func CanUseMode(us *models.UserSettings, app *models.AppSettings, mode string) bool {
	p := Plan(strings.ToLower(us.Plan))
	retail, pro, copay, points := AllowedPricingModes(p)

	switch mode {
	case models.PricingModeRetail:
		return retail
	case models.PricingModePro:
		return pro
	case models.PricingModeCopay:
		if app != nil && !app.IsCopayEnabled() {
			return false
		}
		return copay
	case models.PricingModePoints:
		return points
	default:
		return false
	}
}
