package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/entitlements"
)

// Service syncs external subscription state into the marketplace and derives
// the agent's effective plan from it. All provider specifics stop at the
// webhook parsers; the service only sees normalized inputs.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// LinkAccountInput identifies a provider customer to attach to an agent.
type LinkAccountInput struct {
	UserID            uint
	Provider          string
	ProviderAccountID string
	Email             string
	AccessTokenEnc    string
	RefreshTokenEnc   string
	TokenExpiresAt    *time.Time
}

// LinkAccount attaches a provider customer (a Stripe customer ID, resolved
// from checkout's client_reference_id) to an agent. Idempotent: relinking the
// same customer updates the existing row.
func (s *Service) LinkAccount(ctx context.Context, in LinkAccountInput) (*models.BillingAccount, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	accountRef := strings.TrimSpace(in.ProviderAccountID)
	if in.UserID == 0 || provider == "" || accountRef == "" {
		return nil, errors.New("user_id, provider and provider_account_id are required")
	}

	account := &models.BillingAccount{
		UserID:            in.UserID,
		Provider:          provider,
		ProviderAccountID: accountRef,
		Email:             strings.TrimSpace(in.Email),
		AccessTokenEnc:    in.AccessTokenEnc,
		RefreshTokenEnc:   in.RefreshTokenEnc,
		TokenExpiresAt:    in.TokenExpiresAt,
	}
	if err := s.repo.SaveAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// AccountByProviderRef resolves a provider customer reference to the linked
// agent account. Subscription webhooks carry only the customer ID, so this is
// how a delivery finds its user.
func (s *Service) AccountByProviderRef(ctx context.Context, provider, providerAccountID string) (*models.BillingAccount, error) {
	_ = ctx
	p := strings.ToLower(strings.TrimSpace(provider))
	ref := strings.TrimSpace(providerAccountID)
	if p == "" || ref == "" {
		return nil, errors.New("provider and provider_account_id are required")
	}
	return s.repo.AccountByProviderRef(p, ref)
}

// PlanForPriceRef maps one provider price reference onto an internal plan.
// An exact interval match wins; a mapping stored with interval "unknown"
// serves as the wildcard. An unmapped price returns the free plan together
// with gorm.ErrRecordNotFound so callers can tell "mapped to free" from
// "nobody mapped this price".
func (s *Service) PlanForPriceRef(ctx context.Context, provider, priceRef, interval string) (string, error) {
	_ = ctx
	p := strings.ToLower(strings.TrimSpace(provider))
	ref := strings.TrimSpace(priceRef)
	if p == "" || ref == "" {
		return string(entitlements.PlanFree), errors.New("provider and price ref are required")
	}

	mapping, err := s.repo.ActivePlanMapping(p, ref, normalizeInterval(interval))
	if err == nil {
		return normalizePlan(mapping.InternalPlan), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	mapping, err = s.repo.ActivePlanMapping(p, ref, models.BillingIntervalUnknown)
	if err == nil {
		return normalizePlan(mapping.InternalPlan), nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return string(entitlements.PlanFree), gorm.ErrRecordNotFound
	}
	return "", err
}

// SyncSubscription upserts one provider subscription and reconciles the
// owning agent's plan. The stored internal_plan is resolved from the price
// ref at sync time; unmapped prices are stored as free rather than rejected,
// so a late-added mapping is picked up by the next sync or resync.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.BillingSubscription, string, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	subscriptionRef := strings.TrimSpace(in.ProviderSubscriptionID)
	if in.UserID == 0 || provider == "" || subscriptionRef == "" {
		return nil, "", errors.New("user_id, provider and provider_subscription_id are required")
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.BillingStatusActive
	}

	plan := string(entitlements.PlanFree)
	if priceRef := strings.TrimSpace(in.ProviderPlanRef); priceRef != "" {
		resolved, err := s.PlanForPriceRef(ctx, provider, priceRef, in.BillingInterval)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
		plan = resolved
	}

	sub := &models.BillingSubscription{
		UserID:                 in.UserID,
		Provider:               provider,
		ProviderSubscriptionID: subscriptionRef,
		ProviderPlanRef:        strings.TrimSpace(in.ProviderPlanRef),
		InternalPlan:           plan,
		BillingInterval:        normalizeInterval(in.BillingInterval),
		Status:                 status,
		CurrentPeriodStart:     in.CurrentPeriodStart,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
		RawPayloadJSON:         in.RawPayloadJSON,
	}
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, "", err
	}

	effectivePlan, err := s.ReconcileUserPlan(ctx, in.UserID)
	if err != nil {
		return sub, "", err
	}
	return sub, effectivePlan, nil
}

// ReconcileUserPlan recomputes an agent's effective plan as the best plan
// across their entitling subscriptions and persists it to user settings.
// With no entitling subscription the agent drops to free; the write is
// skipped when nothing changed.
func (s *Service) ReconcileUserPlan(ctx context.Context, userID uint) (string, error) {
	_ = ctx
	if userID == 0 {
		return "", errors.New("user_id is required")
	}

	subs, err := s.repo.SubscriptionsForUser(userID)
	if err != nil {
		return "", err
	}

	effective := string(entitlements.PlanFree)
	for _, sub := range subs {
		if !isEntitlingStatus(sub.Status) {
			continue
		}
		if candidate := normalizePlan(sub.InternalPlan); planRank(candidate) > planRank(effective) {
			effective = candidate
		}
	}

	settings, err := s.repo.SettingsForUser(userID)
	if err != nil {
		return "", err
	}
	if normalizePlan(settings.Plan) == effective {
		return effective, nil
	}
	settings.Plan = effective
	if err := s.repo.SaveSettings(settings); err != nil {
		return "", err
	}
	return effective, nil
}

// RecordWebhookEvent persists a delivery before any processing happens.
// Events without a provider event ID are keyed by a payload hash so even
// malformed deliveries dedup. The created flag is false for redeliveries.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}

	eventRef := strings.TrimSpace(in.ProviderEventID)
	if eventRef == "" {
		digest := sha256.Sum256([]byte(in.PayloadJSON))
		eventRef = "hash:" + hex.EncodeToString(digest[:])
	}

	return s.repo.RecordEventOnce(&models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventRef,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	})
}

// MarkWebhookProcessed stamps an event processed, storing the processing
// error when there was one. The event row keeps the error text for the admin
// console; the HTTP response to the provider is not this method's concern.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	message := ""
	if processingErr != nil {
		message = processingErr.Error()
	}
	return s.repo.StampEventProcessed(webhookEventID, message)
}
