package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Version states. Promotion is forward-only: a later state never regresses to
// an earlier one except through creation of a brand-new draft row.
const (
	VersionStateDraft     = "draft"
	VersionStateSubmitted = "submitted"
	VersionStateApproved  = "approved"
	VersionStatePublished = "published"
	VersionStateArchived  = "archived"
)

// ServiceVersion is one authoring record for a service. Exactly one row per
// service is in state draft at a time (enforced by a partial unique index);
// the versioning API always reads and writes against that row. Published rows
// are retained for rollback, never deleted.
type ServiceVersion struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"service_id"`
	State       string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"state"`
	RowVersion  int            `gorm:"not null;default:1" json:"row_version"`
	Card        ServiceCard    `gorm:"type:jsonb" json:"card"`
	Pricing     ServicePricing `gorm:"type:jsonb" json:"pricing"`
	Funnel      ServiceFunnel  `gorm:"type:jsonb" json:"funnel"`
	PublishedAt *time.Time     `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v *ServiceVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// IsEditable reports whether content mutations are accepted. Draft is the
// only state that takes PATCH/PUT writes.
func (v *ServiceVersion) IsEditable() bool {
	return v.State == VersionStateDraft
}

var versionStateRank = map[string]int{
	VersionStateDraft:     0,
	VersionStateSubmitted: 1,
	VersionStateApproved:  2,
	VersionStatePublished: 3,
	VersionStateArchived:  4,
}

// ValidVersionTransition reports whether a state change respects the
// forward-only promotion path.
func ValidVersionTransition(from, to string) bool {
	fromRank, ok := versionStateRank[from]
	if !ok {
		return false
	}
	toRank, ok := versionStateRank[to]
	if !ok {
		return false
	}
	if from == VersionStateArchived {
		return false
	}
	return toRank > fromRank
}

// DefaultDraftContent returns the documented blank-draft defaults used by
// lazy creation: empty tags and badges, a single "Base Package" tier priced
// at 0, and an empty funnel step list.
func DefaultDraftContent(category string) (ServiceCard, ServicePricing, ServiceFunnel) {
	card := ServiceCard{
		Title:    "Untitled Service",
		Category: category,
		Badges:   []string{},
		Tags:     []string{},
		Media:    CardMedia{Gallery: []string{}},
		CTA:      CardCTA{Type: CTATypeBook, Label: "Book now"},
		Flags:    CardFlags{Active: true},
	}
	pricing := ServicePricing{
		Currency: "USD",
		Tiers: []PricingTier{
			{ID: "base", Name: "Base Package", PriceCents: 0},
		},
	}
	funnel := ServiceFunnel{Steps: []FunnelStep{}}
	return card, pricing, funnel
}
