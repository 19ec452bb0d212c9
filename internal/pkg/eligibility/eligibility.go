package eligibility

import (
	"fmt"

	"github.com/google/uuid"
)

// IneligibilityReason returns a human-readable description of the first rule
// the partner fails for the given query, or "" if the partner is eligible.
//
// The evaluation order is part of the contract, not an implementation detail:
//
//  1. Co-pay must be enabled for the partner.
//  2. If a city is given, it must be one of the partner's markets.
//  3. The agent's deals in the last 12 months must meet the partner's minimum.
//  4. The service must be on the partner's allow list.
//  5. The service must not be on the partner's prohibition list. Checked last
//     so an explicit allow never masks an explicit prohibition: a service on
//     both lists is always ineligible.
//
// The function is pure; it never validates its inputs and never treats an
// ineligible outcome as an error.
func IneligibilityReason(p Partner, q Params) string {
	if !p.Copay.Enabled {
		return "co-pay is not enabled for this partner"
	}
	if q.City != "" && !containsString(p.Markets, q.City) {
		return fmt.Sprintf("not available in %s", q.City)
	}
	if q.Agent.DealsLast12m < p.Copay.MinAgentDealsPerYear {
		return fmt.Sprintf("requires %d+ deals per year (you have %d)",
			p.Copay.MinAgentDealsPerYear, q.Agent.DealsLast12m)
	}
	if !containsID(p.Copay.AllowedServiceIDs, q.ServiceID) {
		return "service not covered by this partner"
	}
	if containsID(p.Copay.ProhibitedServiceIDs, q.ServiceID) {
		return "service excluded from co-pay"
	}
	return ""
}

// IsPartnerEligible reports whether the partner may offer co-pay for the
// query. It agrees with IneligibilityReason by construction.
func IsPartnerEligible(p Partner, q Params) bool {
	return IneligibilityReason(p, q) == ""
}

// EligiblePartners filters partners by eligibility, preserving input order.
// Partners are assumed unique by ID; no dedup is performed.
func EligiblePartners(partners []Partner, q Params) []Partner {
	eligible := make([]Partner, 0, len(partners))
	for _, p := range partners {
		if IsPartnerEligible(p, q) {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// BenefitDescription renders the storefront copy for a partner's co-pay
// benefit based on its share percentage.
func BenefitDescription(p Partner) string {
	if p.SharePct <= 0 {
		return fmt.Sprintf("%s contributes to the cost of this service", p.Name)
	}
	return fmt.Sprintf("%s covers %d%% of the cost for qualified agents", p.Name, p.SharePct)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsID(list []uuid.UUID, id uuid.UUID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
