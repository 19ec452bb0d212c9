package eligibility

import (
	"testing"

	"github.com/google/uuid"
)

var (
	svcRoofing  = uuid.MustParse("7a1d2f3e-0b4c-4d5e-8f6a-1b2c3d4e5f60")
	svcStaging  = uuid.MustParse("1c9e8d7b-6a5f-4e3d-9c2b-0a1f2e3d4c5b")
	svcPhotos   = uuid.MustParse("3f2e1d0c-9b8a-4756-8493-a2b1c0d9e8f7")
	testPartner = Partner{
		ID:      uuid.MustParse("b4f0c1d2-e3a4-4b5c-9d6e-7f8091a2b3c4"),
		Name:    "Lone Star Title",
		Markets: []string{"austin-tx"},
		Copay: CopayRules{
			Enabled:              true,
			MinAgentDealsPerYear: 25,
			AllowedServiceIDs:    []uuid.UUID{svcRoofing},
		},
		SharePct: 40,
	}
)

func TestIneligibilityReasonRuleOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Partner, q *Params)
		want    string
		someTxt string
	}{
		{
			name:   "fully eligible",
			mutate: func(p *Partner, q *Params) {},
			want:   "",
		},
		{
			name:   "disabled partner fails first regardless of other fields",
			mutate: func(p *Partner, q *Params) { p.Copay.Enabled = false; q.City = "nowhere" },
			want:   "co-pay is not enabled for this partner",
		},
		{
			name:   "city outside markets",
			mutate: func(p *Partner, q *Params) { q.City = "dallas-tx" },
			want:   "not available in dallas-tx",
		},
		{
			name:   "omitted city skips the market rule",
			mutate: func(p *Partner, q *Params) { q.City = "" },
			want:   "",
		},
		{
			name:   "agent below deal threshold",
			mutate: func(p *Partner, q *Params) { q.Agent.DealsLast12m = 10 },
			want:   "requires 25+ deals per year (you have 10)",
		},
		{
			name:   "zero-value agent profile defaults to 0 deals",
			mutate: func(p *Partner, q *Params) { q.Agent = AgentProfile{} },
			want:   "requires 25+ deals per year (you have 0)",
		},
		{
			name:   "service not on allow list",
			mutate: func(p *Partner, q *Params) { q.ServiceID = svcStaging },
			want:   "service not covered by this partner",
		},
		{
			name: "prohibition wins even when service is also allowed",
			mutate: func(p *Partner, q *Params) {
				p.Copay.ProhibitedServiceIDs = []uuid.UUID{svcRoofing}
			},
			want: "service excluded from co-pay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPartner
			q := Params{
				ServiceID: svcRoofing,
				City:      "austin-tx",
				Agent:     AgentProfile{DealsLast12m: 50},
			}
			tt.mutate(&p, &q)

			got := IneligibilityReason(p, q)
			if got != tt.want {
				t.Fatalf("IneligibilityReason() = %q, want %q", got, tt.want)
			}
			// The boolean and the reason must never disagree.
			if IsPartnerEligible(p, q) != (got == "") {
				t.Fatalf("IsPartnerEligible disagrees with IneligibilityReason %q", got)
			}
		})
	}
}

func TestIneligibilityReasonDeterministic(t *testing.T) {
	q := Params{ServiceID: svcRoofing, City: "austin-tx", Agent: AgentProfile{DealsLast12m: 50}}
	first := IneligibilityReason(testPartner, q)
	for i := 0; i < 10; i++ {
		if got := IneligibilityReason(testPartner, q); got != first {
			t.Fatalf("call %d returned %q, first call returned %q", i, got, first)
		}
	}
}

func TestEligiblePartnersPreservesOrder(t *testing.T) {
	disabled := testPartner
	disabled.ID = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	disabled.Copay.Enabled = false

	second := testPartner
	second.ID = uuid.MustParse("00000000-0000-4000-8000-000000000002")
	second.Name = "Hill Country Lending"

	in := []Partner{testPartner, disabled, second}
	q := Params{ServiceID: svcRoofing, City: "austin-tx", Agent: AgentProfile{DealsLast12m: 50}}

	got := EligiblePartners(in, q)
	if len(got) != 2 {
		t.Fatalf("expected 2 eligible partners, got %d", len(got))
	}
	if got[0].ID != testPartner.ID || got[1].ID != second.ID {
		t.Fatalf("input order not preserved: %v, %v", got[0].Name, got[1].Name)
	}
	if len(got) > len(in) {
		t.Fatalf("filter grew the list")
	}

	// Equivalent to filtering by IsPartnerEligible.
	var manual []Partner
	for _, p := range in {
		if IsPartnerEligible(p, q) {
			manual = append(manual, p)
		}
	}
	if len(manual) != len(got) {
		t.Fatalf("EligiblePartners disagrees with manual filter")
	}
}

func TestEligiblePartnersEmptyInput(t *testing.T) {
	got := EligiblePartners(nil, Params{ServiceID: svcPhotos})
	if len(got) != 0 {
		t.Fatalf("expected empty result for empty input, got %d", len(got))
	}
}

func TestBenefitDescription(t *testing.T) {
	if got := BenefitDescription(testPartner); got != "Lone Star Title covers 40% of the cost for qualified agents" {
		t.Fatalf("unexpected benefit text: %q", got)
	}
	noShare := testPartner
	noShare.SharePct = 0
	if got := BenefitDescription(noShare); got != "Lone Star Title contributes to the cost of this service" {
		t.Fatalf("unexpected fallback benefit text: %q", got)
	}
}
