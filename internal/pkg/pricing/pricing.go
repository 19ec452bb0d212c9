package pricing

import (
	"errors"

	"github.com/google/uuid"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/eligibility"
)

var (
	ErrUnknownMode        = errors.New("pricing: unknown pricing mode")
	ErrTierNotFound       = errors.New("pricing: tier not found")
	ErrPartnerRequired    = errors.New("pricing: co-pay quote requires a partner")
	ErrPartnerIneligible  = errors.New("pricing: partner not eligible for this agent")
	ErrInsufficientPoints = errors.New("pricing: points balance too low")
)

// ProDiscountPct is the flat pro-rate discount applied for agents on a paid
// plan when they check out in pro mode.
const ProDiscountPct = 10

// PointsPerCent converts a cash price into the points required to redeem it.
const PointsPerCent = 1

// Input carries everything a quote needs. The engine itself is pure; callers
// resolve the tier, partner and agent rows first.
type Input struct {
	Mode     string
	Currency string
	Tier     *models.PricingTier

	// Co-pay mode only.
	Partner *eligibility.Partner
	City    string

	// Points mode only.
	PointsBalance int64

	Agent     eligibility.AgentProfile
	ServiceID uuid.UUID
}

// Quote is the priced result for one tier in one mode.
type Quote struct {
	Mode              string `json:"mode"`
	Currency          string `json:"currency"`
	TierID            string `json:"tier_id"`
	ListPriceCents    int64  `json:"list_price_cents"`
	DueCents          int64  `json:"due_cents"`
	DiscountCents     int64  `json:"discount_cents,omitempty"`
	PartnerID         string `json:"partner_id,omitempty"`
	PartnerShareCents int64  `json:"partner_share_cents,omitempty"`
	PartnerBenefit    string `json:"partner_benefit,omitempty"`
	PointsRequired    int64  `json:"points_required,omitempty"`
}

// BuildQuote prices a tier under the requested mode.
//
// Retail charges the list price. Pro applies the flat pro-rate discount.
// Co-pay re-checks partner eligibility and splits the price by the partner's
// share percentage, rounding the partner's side down so the agent never pays
// less than the remainder. Points converts the list price into points and
// verifies the balance covers it.
func BuildQuote(in Input) (*Quote, error) {
	if in.Tier == nil {
		return nil, ErrTierNotFound
	}

	q := &Quote{
		Mode:           in.Mode,
		Currency:       in.Currency,
		TierID:         in.Tier.ID,
		ListPriceCents: in.Tier.PriceCents,
	}

	switch in.Mode {
	case models.PricingModeRetail:
		q.DueCents = q.ListPriceCents

	case models.PricingModePro:
		q.DiscountCents = q.ListPriceCents * ProDiscountPct / 100
		q.DueCents = q.ListPriceCents - q.DiscountCents

	case models.PricingModeCopay:
		if in.Partner == nil {
			return nil, ErrPartnerRequired
		}
		params := eligibility.Params{
			ServiceID: in.ServiceID,
			City:      in.City,
			Agent:     in.Agent,
		}
		if reason := eligibility.IneligibilityReason(*in.Partner, params); reason != "" {
			return nil, ErrPartnerIneligible
		}
		q.PartnerID = in.Partner.ID.String()
		q.PartnerBenefit = eligibility.BenefitDescription(*in.Partner)
		q.PartnerShareCents = q.ListPriceCents * int64(in.Partner.SharePct) / 100
		q.DueCents = q.ListPriceCents - q.PartnerShareCents

	case models.PricingModePoints:
		q.PointsRequired = q.ListPriceCents * PointsPerCent
		if in.PointsBalance < q.PointsRequired {
			return nil, ErrInsufficientPoints
		}
		q.DueCents = 0

	default:
		return nil, ErrUnknownMode
	}

	return q, nil
}
