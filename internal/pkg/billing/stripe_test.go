package billing

import (
	"testing"

	"github.com/doorstep-market/doorstep/app/models"
)

func TestParseStripeWebhookEventSubscription(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1abc",
		"type": "customer.subscription.updated",
		"data": {
			"object": {
				"id": "sub_9xyz",
				"customer": "cus_42",
				"status": "active",
				"cancel_at_period_end": true,
				"current_period_start": 1756339200,
				"current_period_end": 1758931200,
				"items": {
					"data": [
						{"price": {"id": "price_pro_month", "recurring": {"interval": "month"}}}
					]
				}
			}
		}
	}`)

	evt, err := ParseStripeWebhookEvent(payload)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if evt.EventID != "evt_1abc" || evt.EventType != "customer.subscription.updated" {
		t.Fatalf("unexpected envelope: %+v", evt)
	}
	sub := evt.Subscription
	if sub == nil {
		t.Fatal("expected embedded subscription")
	}
	if sub.ID != "sub_9xyz" || sub.CustomerID != "cus_42" || sub.Status != "active" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if !sub.CancelAtPeriodEnd {
		t.Fatal("cancel_at_period_end not carried over")
	}
	if len(sub.PriceIDs) != 1 || sub.PriceIDs[0] != "price_pro_month" {
		t.Fatalf("unexpected price ids: %v", sub.PriceIDs)
	}
	if sub.Interval != "month" {
		t.Fatalf("unexpected interval: %q", sub.Interval)
	}
	if sub.CurrentPeriodStart == nil || sub.CurrentPeriodEnd == nil {
		t.Fatal("period bounds missing")
	}
}

func TestParseStripeWebhookEventNonSubscription(t *testing.T) {
	evt, err := ParseStripeWebhookEvent([]byte(`{"id":"evt_2","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if evt.Subscription != nil {
		t.Fatal("non-subscription event should not carry a subscription")
	}
}

func TestParseStripeWebhookEventMissingID(t *testing.T) {
	if _, err := ParseStripeWebhookEvent([]byte(`{"type":"invoice.paid"}`)); err == nil {
		t.Fatal("expected error for missing event id")
	}
}

func TestPrimaryPriceID(t *testing.T) {
	sub := &StripeSubscription{}
	if got := sub.PrimaryPriceID(); got != "" {
		t.Fatalf("expected empty price id without items, got %q", got)
	}
	sub.PriceIDs = []string{"price_pro_month", "price_addon"}
	if got := sub.PrimaryPriceID(); got != "price_pro_month" {
		t.Fatalf("expected the first price id, got %q", got)
	}
}

func TestStripeStatusToBillingStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"active", models.BillingStatusActive},
		{"trialing", models.BillingStatusActive},
		{"past_due", models.BillingStatusPastDue},
		{"unpaid", models.BillingStatusPastDue},
		{"canceled", models.BillingStatusCanceled},
		{"incomplete_expired", models.BillingStatusIncomplete},
		{"", models.BillingStatusIncomplete},
	}
	for _, tt := range tests {
		if got := StripeStatusToBillingStatus(tt.in); got != tt.want {
			t.Fatalf("StripeStatusToBillingStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
