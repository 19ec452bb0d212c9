package eligibility

import "github.com/google/uuid"

// Partner is the canonical co-pay partner shape the engine evaluates.
// Storage and fixture representations are converted into this type by the
// adapters in adapter.go; the rule logic only ever sees this shape.
type Partner struct {
	ID      uuid.UUID
	Name    string
	Markets []string
	Copay   CopayRules
	// SharePct is the portion of the service price the partner covers for
	// eligible agents, expressed as a whole percentage (0-100). It drives
	// the benefit description text only, never the eligibility outcome.
	SharePct int
}

// CopayRules holds the partner's cost-sharing policy.
// AllowedServiceIDs and ProhibitedServiceIDs may overlap in storage;
// prohibition always wins (see IneligibilityReason rule order).
type CopayRules struct {
	Enabled              bool
	MinAgentDealsPerYear int
	AllowedServiceIDs    []uuid.UUID
	ProhibitedServiceIDs []uuid.UUID
}

// AgentProfile is the requesting agent's qualification snapshot, built
// per-request from the stored user profile. Never persisted by this package.
type AgentProfile struct {
	DealsLast12m int
}

// Params is a single eligibility query.
type Params struct {
	ServiceID uuid.UUID
	// City is the market key the agent is shopping in. Empty means the
	// market rule is skipped, not failed.
	City  string
	Agent AgentProfile
}
