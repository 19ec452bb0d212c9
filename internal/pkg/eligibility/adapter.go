package eligibility

import (
	"github.com/google/uuid"

	"github.com/doorstep-market/doorstep/app/models"
)

// FixturePartner mirrors the shape of partner records in YAML/JSON seed
// files, where the co-pay policy is nested under `copayPolicy`. It exists
// only so the ingest tooling and the storage model can be converted into the
// one canonical Partner; the rule logic is never duplicated per shape.
type FixturePartner struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Markets     []string    `yaml:"markets" json:"markets"`
	CopayPolicy CopayPolicy `yaml:"copayPolicy" json:"copayPolicy"`
}

// CopayPolicy is the fixture-file policy block.
type CopayPolicy struct {
	Enabled              bool     `yaml:"enabled" json:"enabled"`
	MinAgentDealsPerYear int      `yaml:"minAgentDealsPerYear" json:"minAgentDealsPerYear"`
	AllowedServices      []string `yaml:"allowedServices" json:"allowedServices"`
	ProhibitedServices   []string `yaml:"prohibitedServices" json:"prohibitedServices"`
	SharePct             int      `yaml:"sharePct" json:"sharePct"`
}

// FromModel converts a stored vendor partner row into the canonical shape.
func FromModel(m *models.VendorPartner) Partner {
	return Partner{
		ID:      m.ID,
		Name:    m.Name,
		Markets: []string(m.Markets),
		Copay: CopayRules{
			Enabled:              m.CopayEnabled,
			MinAgentDealsPerYear: m.MinAgentDealsPerYear,
			AllowedServiceIDs:    []uuid.UUID(m.AllowedServiceIDs),
			ProhibitedServiceIDs: []uuid.UUID(m.ProhibitedServiceIDs),
		},
		SharePct: m.SharePct,
	}
}

// FromModels converts a slice of stored partners, preserving order.
func FromModels(ms []models.VendorPartner) []Partner {
	out := make([]Partner, 0, len(ms))
	for i := range ms {
		out = append(out, FromModel(&ms[i]))
	}
	return out
}

// FromFixture converts a fixture-shaped partner into the canonical shape.
// Malformed UUIDs in the fixture lists are dropped rather than failing the
// conversion; fixture validation is the ingest tool's job.
func FromFixture(f FixturePartner) Partner {
	id, _ := uuid.Parse(f.ID)
	return Partner{
		ID:      id,
		Name:    f.Name,
		Markets: f.Markets,
		Copay: CopayRules{
			Enabled:              f.CopayPolicy.Enabled,
			MinAgentDealsPerYear: f.CopayPolicy.MinAgentDealsPerYear,
			AllowedServiceIDs:    parseIDs(f.CopayPolicy.AllowedServices),
			ProhibitedServiceIDs: parseIDs(f.CopayPolicy.ProhibitedServices),
		},
		SharePct: f.CopayPolicy.SharePct,
	}
}

func parseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
