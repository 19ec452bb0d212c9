package drafts

import (
	"strings"
	"testing"

	"github.com/doorstep-market/doorstep/app/models"
)

func TestValidateCardBounds(t *testing.T) {
	base := func() models.ServiceCard {
		return models.ServiceCard{
			Title:    "Professional Staging",
			Category: "staging",
			CTA:      models.CardCTA{Type: models.CTATypeAddToCart, Label: "Add"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *models.ServiceCard)
		wantErr bool
	}{
		{"valid", func(c *models.ServiceCard) {}, false},
		{"title too short", func(c *models.ServiceCard) { c.Title = "ab" }, true},
		{"title too long", func(c *models.ServiceCard) { c.Title = strings.Repeat("x", 91) }, true},
		{"title at max", func(c *models.ServiceCard) { c.Title = strings.Repeat("x", 90) }, false},
		{"subtitle over 140", func(c *models.ServiceCard) { c.Subtitle = strings.Repeat("s", 141) }, true},
		{"seven badges", func(c *models.ServiceCard) {
			c.Badges = []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"}
		}, true},
		{"category missing", func(c *models.ServiceCard) { c.Category = "" }, true},
		{"category one char", func(c *models.ServiceCard) { c.Category = "x" }, true},
		{"thirteen tags", func(c *models.ServiceCard) {
			c.Tags = strings.Split(strings.Repeat("t,", 13), ",")[:13]
		}, true},
		{"nine gallery urls", func(c *models.ServiceCard) {
			for i := 0; i < 9; i++ {
				c.Media.Gallery = append(c.Media.Gallery, "https://cdn.example.com/img.jpg")
			}
		}, true},
		{"gallery not a url", func(c *models.ServiceCard) { c.Media.Gallery = []string{"not a url"} }, true},
		{"cta bad type", func(c *models.ServiceCard) { c.CTA.Type = "buy" }, true},
		{"cta label one char", func(c *models.ServiceCard) { c.CTA.Label = "x" }, true},
		{"cta label over 40", func(c *models.ServiceCard) { c.CTA.Label = strings.Repeat("l", 41) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := base()
			tt.mutate(&card)
			err := ValidateCard(&card)
			if tt.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidatePricingBounds(t *testing.T) {
	tier := models.PricingTier{ID: "base", Name: "Base Package", PriceCents: 0}

	if err := ValidatePricing(&models.ServicePricing{Currency: "USD", Tiers: []models.PricingTier{tier}}); err != nil {
		t.Fatalf("valid pricing rejected: %v", err)
	}
	if err := ValidatePricing(&models.ServicePricing{Currency: "US", Tiers: []models.PricingTier{tier}}); err == nil {
		t.Fatal("2-char currency accepted")
	}
	if err := ValidatePricing(&models.ServicePricing{Currency: "USD"}); err == nil {
		t.Fatal("empty tier list accepted")
	}
	neg := tier
	neg.PriceCents = -1
	if err := ValidatePricing(&models.ServicePricing{Currency: "USD", Tiers: []models.PricingTier{neg}}); err == nil {
		t.Fatal("negative tier price accepted")
	}
}

func TestValidateFunnelBounds(t *testing.T) {
	step := models.FunnelStep{Kind: models.FunnelStepHero, Headline: "Sell faster"}

	if err := ValidateFunnel(&models.ServiceFunnel{Steps: []models.FunnelStep{step}}); err != nil {
		t.Fatalf("valid funnel rejected: %v", err)
	}
	if err := ValidateFunnel(&models.ServiceFunnel{}); err != nil {
		t.Fatalf("empty funnel rejected: %v", err)
	}

	bad := step
	bad.Kind = "banner"
	if err := ValidateFunnel(&models.ServiceFunnel{Steps: []models.FunnelStep{bad}}); err == nil {
		t.Fatal("unknown step kind accepted")
	}

	long := make([]models.FunnelStep, 31)
	for i := range long {
		long[i] = step
	}
	if err := ValidateFunnel(&models.ServiceFunnel{Steps: long}); err == nil {
		t.Fatal("31 steps accepted")
	}
}
