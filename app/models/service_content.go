package models

import "database/sql/driver"

// CTA types accepted on a service card.
const (
	CTATypeBook      = "book"
	CTATypeLink      = "link"
	CTATypeAddToCart = "add_to_cart"
)

// Funnel step kinds.
const (
	FunnelStepHero           = "hero"
	FunnelStepProof          = "proof"
	FunnelStepPackageChooser = "package-chooser"
	FunnelStepFAQ            = "faq"
	FunnelStepCTA            = "cta"
	FunnelStepCustom         = "custom"
)

// ServiceCard is the storefront card content for a service. The validate tags
// are the binding field contracts enforced on every admin edit.
type ServiceCard struct {
	Title           string     `json:"title" validate:"required,min=3,max=90"`
	Subtitle        string     `json:"subtitle" validate:"max=140"`
	Badges          []string   `json:"badges" validate:"max=6,dive,min=1,max=40"`
	Category        string     `json:"category" validate:"required,min=2,max=100"`
	Tags            []string   `json:"tags" validate:"max=12,dive,min=1,max=40"`
	Media           CardMedia  `json:"media"`
	Highlights      []string   `json:"highlights" validate:"max=8,dive,min=1,max=200"`
	CTA             CardCTA    `json:"cta"`
	Flags           CardFlags  `json:"flags"`
	ComplianceNotes string     `json:"compliance_notes" validate:"max=2000"`
}

// CardMedia holds the card's cover and gallery image URLs.
type CardMedia struct {
	CoverURL string   `json:"cover_url" validate:"omitempty,url"`
	Gallery  []string `json:"gallery" validate:"max=8,dive,url"`
}

// CardCTA is the card's call-to-action.
type CardCTA struct {
	Type   string `json:"type" validate:"required,oneof=book link add_to_cart"`
	Label  string `json:"label" validate:"required,min=2,max=40"`
	Target string `json:"target" validate:"omitempty,max=500"`
}

// CardFlags are the card's boolean switches. Defaults on lazy draft creation:
// active true, everything else false.
type CardFlags struct {
	Active    bool `json:"active"`
	Verified  bool `json:"verified"`
	Affiliate bool `json:"affiliate"`
	Booking   bool `json:"booking"`
}

// ServicePricing is the ordered tier list plus billing terms.
type ServicePricing struct {
	Currency     string        `json:"currency" validate:"required,len=3"`
	Tiers        []PricingTier `json:"tiers" validate:"required,min=1,dive"`
	BillingTerms string        `json:"billing_terms" validate:"max=2000"`
}

// PricingTier is one purchasable package of a service.
type PricingTier struct {
	ID         string   `json:"id" validate:"required,min=1,max=64"`
	Name       string   `json:"name" validate:"required,min=2,max=80"`
	PriceCents int64    `json:"price_cents" validate:"gte=0"`
	Unit       string   `json:"unit" validate:"max=40"`
	Includes   []string `json:"includes" validate:"max=20,dive,max=200"`
	Upsells    []string `json:"upsells" validate:"max=10,dive,max=200"`
}

// ServiceFunnel is the ordered conversion content shown on a service page.
type ServiceFunnel struct {
	Steps []FunnelStep `json:"steps" validate:"max=30,dive"`
}

// FunnelStep is one content block of the funnel.
type FunnelStep struct {
	Kind         string   `json:"kind" validate:"required,oneof=hero proof package-chooser faq cta custom"`
	Headline     string   `json:"headline" validate:"max=200"`
	Bullets      []string `json:"bullets" validate:"max=12,dive,max=300"`
	MediaURL     string   `json:"media_url" validate:"omitempty,url"`
	TargetTierID string   `json:"target_tier_id" validate:"max=64"`
}

// Tier returns the pricing tier with the given id, if present.
func (p *ServicePricing) Tier(id string) (*PricingTier, bool) {
	for i := range p.Tiers {
		if p.Tiers[i].ID == id {
			return &p.Tiers[i], true
		}
	}
	return nil, false
}

// The content structs are stored as JSON columns on service_versions.

func (c ServiceCard) Value() (driver.Value, error)    { return jsonValue(c) }
func (c *ServiceCard) Scan(value interface{}) error   { return scanJSON(value, c) }
func (p ServicePricing) Value() (driver.Value, error) { return jsonValue(p) }
func (p *ServicePricing) Scan(value interface{}) error {
	return scanJSON(value, p)
}
func (f ServiceFunnel) Value() (driver.Value, error)  { return jsonValue(f) }
func (f *ServiceFunnel) Scan(value interface{}) error { return scanJSON(value, f) }
