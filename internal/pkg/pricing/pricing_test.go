package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/eligibility"
)

func stagingTier() *models.PricingTier {
	return &models.PricingTier{ID: "standard", Name: "Standard Staging", PriceCents: 25000}
}

func TestBuildQuoteRetail(t *testing.T) {
	q, err := BuildQuote(Input{Mode: models.PricingModeRetail, Currency: "USD", Tier: stagingTier()})
	require.NoError(t, err)
	assert.Equal(t, int64(25000), q.ListPriceCents)
	assert.Equal(t, int64(25000), q.DueCents)
	assert.Zero(t, q.DiscountCents)
}

func TestBuildQuotePro(t *testing.T) {
	q, err := BuildQuote(Input{Mode: models.PricingModePro, Currency: "USD", Tier: stagingTier()})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), q.DiscountCents)
	assert.Equal(t, int64(22500), q.DueCents)
}

func TestBuildQuoteCopay(t *testing.T) {
	serviceID := uuid.New()
	partner := eligibility.Partner{
		ID:       uuid.New(),
		Name:     "Brightside Title",
		Markets:  []string{"austin-tx"},
		SharePct: 40,
		Copay: eligibility.CopayRules{
			Enabled:              true,
			MinAgentDealsPerYear: 10,
			AllowedServiceIDs:    []uuid.UUID{serviceID},
		},
	}

	in := Input{
		Mode:      models.PricingModeCopay,
		Currency:  "USD",
		Tier:      stagingTier(),
		Partner:   &partner,
		City:      "austin-tx",
		Agent:     eligibility.AgentProfile{DealsLast12m: 12},
		ServiceID: serviceID,
	}

	q, err := BuildQuote(in)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), q.PartnerShareCents)
	assert.Equal(t, int64(15000), q.DueCents)
	assert.Equal(t, partner.ID.String(), q.PartnerID)
	assert.Equal(t, "Brightside Title covers 40% of the cost for qualified agents", q.PartnerBenefit)

	// Partner split rounds down, agent side keeps the remainder.
	odd := &models.PricingTier{ID: "odd", Name: "Odd", PriceCents: 9999}
	in.Tier = odd
	q, err = BuildQuote(in)
	require.NoError(t, err)
	assert.Equal(t, int64(3999), q.PartnerShareCents)
	assert.Equal(t, int64(6000), q.DueCents)
}

func TestBuildQuoteCopayRejectsIneligiblePartner(t *testing.T) {
	partner := eligibility.Partner{
		ID:       uuid.New(),
		Name:     "Brightside Title",
		Markets:  []string{"austin-tx"},
		SharePct: 40,
		Copay: eligibility.CopayRules{
			Enabled:              true,
			MinAgentDealsPerYear: 25,
		},
	}

	_, err := BuildQuote(Input{
		Mode:    models.PricingModeCopay,
		Tier:    stagingTier(),
		Partner: &partner,
		City:    "austin-tx",
		Agent:   eligibility.AgentProfile{DealsLast12m: 10},
	})
	assert.ErrorIs(t, err, ErrPartnerIneligible)

	_, err = BuildQuote(Input{Mode: models.PricingModeCopay, Tier: stagingTier()})
	assert.ErrorIs(t, err, ErrPartnerRequired)
}

func TestBuildQuotePoints(t *testing.T) {
	q, err := BuildQuote(Input{
		Mode:          models.PricingModePoints,
		Currency:      "USD",
		Tier:          stagingTier(),
		PointsBalance: 30000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25000), q.PointsRequired)
	assert.Zero(t, q.DueCents)

	_, err = BuildQuote(Input{
		Mode:          models.PricingModePoints,
		Tier:          stagingTier(),
		PointsBalance: 100,
	})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestBuildQuoteUnknownModeAndMissingTier(t *testing.T) {
	_, err := BuildQuote(Input{Mode: "barter", Tier: stagingTier()})
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = BuildQuote(Input{Mode: models.PricingModeRetail})
	assert.ErrorIs(t, err, ErrTierNotFound)
}
