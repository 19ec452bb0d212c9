package billing

import "time"

// NormalizedSubscription is the provider-agnostic shape the sync service
// consumes. Webhook parsers translate provider payloads (Stripe today) into
// this before anything touches the database, so SyncSubscription never sees
// provider-specific field names.
type NormalizedSubscription struct {
	UserID                 uint
	Provider               string
	ProviderSubscriptionID string
	ProviderPlanRef        string
	BillingInterval        string
	Status                 string
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
	RawPayloadJSON         string
}

// WebhookEventInput carries one incoming webhook delivery for persistence.
// Events are recorded before processing; the (provider, event id) pair is the
// dedup key for retried deliveries.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
