package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/doorstep-market/doorstep/app/models"
)

// fakeBillingRepo is an in-memory Repository keyed the same way the GORM
// implementation keys its tables.
type fakeBillingRepo struct {
	mappings []models.BillingPlanMapping
	accounts map[string]*models.BillingAccount
	subs     map[string]*models.BillingSubscription
	settings map[uint]*models.UserSettings
	events   map[string]*models.BillingWebhookEvent

	nextID uint
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{
		accounts: make(map[string]*models.BillingAccount),
		subs:     make(map[string]*models.BillingSubscription),
		settings: make(map[uint]*models.UserSettings),
		events:   make(map[string]*models.BillingWebhookEvent),
	}
}

func (f *fakeBillingRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeBillingRepo) ActivePlanMapping(provider, priceRef, interval string) (*models.BillingPlanMapping, error) {
	for i := range f.mappings {
		m := f.mappings[i]
		if m.IsActive && m.Provider == provider && m.ProviderPlanRef == priceRef && m.BillingInterval == interval {
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBillingRepo) SaveAccount(account *models.BillingAccount) error {
	key := account.Provider + "/" + account.ProviderAccountID
	if existing, ok := f.accounts[key]; ok {
		account.ID = existing.ID
	} else {
		account.ID = f.id()
	}
	stored := *account
	f.accounts[key] = &stored
	return nil
}

func (f *fakeBillingRepo) AccountByProviderRef(provider, providerAccountID string) (*models.BillingAccount, error) {
	if account, ok := f.accounts[provider+"/"+providerAccountID]; ok {
		out := *account
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBillingRepo) SaveSubscription(sub *models.BillingSubscription) error {
	key := sub.Provider + "/" + sub.ProviderSubscriptionID
	if existing, ok := f.subs[key]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = f.id()
	}
	stored := *sub
	f.subs[key] = &stored
	return nil
}

func (f *fakeBillingRepo) SubscriptionsForUser(userID uint) ([]models.BillingSubscription, error) {
	var out []models.BillingSubscription
	for _, sub := range f.subs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeBillingRepo) SettingsForUser(userID uint) (*models.UserSettings, error) {
	if us, ok := f.settings[userID]; ok {
		out := *us
		return &out, nil
	}
	us := &models.UserSettings{ID: f.id(), UserID: userID, Plan: "free"}
	f.settings[userID] = us
	out := *us
	return &out, nil
}

func (f *fakeBillingRepo) SaveSettings(us *models.UserSettings) error {
	stored := *us
	f.settings[us.UserID] = &stored
	return nil
}

func (f *fakeBillingRepo) RecordEventOnce(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := f.events[key]; ok {
		out := *existing
		return false, &out, nil
	}
	event.ID = f.id()
	stored := *event
	f.events[key] = &stored
	out := stored
	return true, &out, nil
}

func (f *fakeBillingRepo) StampEventProcessed(id uint, processingError string) error {
	for _, event := range f.events {
		if event.ID == id {
			event.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func TestLinkAccountRelinksExistingCustomer(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := NewService(repo)

	first, err := svc.LinkAccount(context.Background(), LinkAccountInput{
		UserID:            7,
		Provider:          "Stripe",
		ProviderAccountID: "cus_123",
		Email:             "agent@example.com",
	})
	if err != nil {
		t.Fatalf("LinkAccount failed: %v", err)
	}
	if first.Provider != "stripe" {
		t.Fatalf("expected provider to be normalized to stripe, got %q", first.Provider)
	}

	second, err := svc.LinkAccount(context.Background(), LinkAccountInput{
		UserID:            9,
		Provider:          "stripe",
		ProviderAccountID: "cus_123",
		Email:             "other@example.com",
	})
	if err != nil {
		t.Fatalf("relink failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("relinking the same customer created a new row: %d vs %d", second.ID, first.ID)
	}

	resolved, err := svc.AccountByProviderRef(context.Background(), "stripe", "cus_123")
	if err != nil {
		t.Fatalf("AccountByProviderRef failed: %v", err)
	}
	if resolved.UserID != 9 {
		t.Fatalf("expected account to follow the latest link, got user %d", resolved.UserID)
	}
}

func TestLinkAccountRejectsIncompleteInput(t *testing.T) {
	svc := NewService(newFakeBillingRepo())
	if _, err := svc.LinkAccount(context.Background(), LinkAccountInput{Provider: "stripe", ProviderAccountID: "cus_1"}); err == nil {
		t.Fatal("expected an error without a user id")
	}
	if _, err := svc.LinkAccount(context.Background(), LinkAccountInput{UserID: 1, Provider: "stripe"}); err == nil {
		t.Fatal("expected an error without a provider account id")
	}
}

func TestPlanForPriceRef(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.mappings = []models.BillingPlanMapping{
		{Provider: "stripe", ProviderPlanRef: "price_pro_month", InternalPlan: "pro", BillingInterval: "month", IsActive: true},
		{Provider: "stripe", ProviderPlanRef: "price_team_any", InternalPlan: "team", BillingInterval: models.BillingIntervalUnknown, IsActive: true},
		{Provider: "stripe", ProviderPlanRef: "price_retired", InternalPlan: "pro", BillingInterval: "month", IsActive: false},
	}
	svc := NewService(repo)

	plan, err := svc.PlanForPriceRef(context.Background(), "stripe", "price_pro_month", "month")
	if err != nil {
		t.Fatalf("exact interval lookup failed: %v", err)
	}
	if plan != "pro" {
		t.Fatalf("expected pro, got %q", plan)
	}

	// An interval-specific miss falls back to the "unknown" wildcard row.
	plan, err = svc.PlanForPriceRef(context.Background(), "stripe", "price_team_any", "year")
	if err != nil {
		t.Fatalf("wildcard lookup failed: %v", err)
	}
	if plan != "team" {
		t.Fatalf("expected team via wildcard mapping, got %q", plan)
	}

	plan, err = svc.PlanForPriceRef(context.Background(), "stripe", "price_retired", "month")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for a retired price, got %v", err)
	}
	if plan != "free" {
		t.Fatalf("expected free fallback for a retired price, got %q", plan)
	}
}

func TestSyncSubscriptionResolvesPlanFromPriceRef(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.mappings = []models.BillingPlanMapping{
		{Provider: "stripe", ProviderPlanRef: "price_pro_month", InternalPlan: "pro", BillingInterval: "month", IsActive: true},
	}
	svc := NewService(repo)

	sub, effective, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		UserID:                 4,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_1",
		ProviderPlanRef:        "price_pro_month",
		BillingInterval:        "month",
		Status:                 models.BillingStatusActive,
	})
	if err != nil {
		t.Fatalf("SyncSubscription failed: %v", err)
	}
	if sub.InternalPlan != "pro" {
		t.Fatalf("expected the mapped plan on the stored row, got %q", sub.InternalPlan)
	}
	if effective != "pro" {
		t.Fatalf("expected effective plan pro, got %q", effective)
	}

	settings, err := repo.SettingsForUser(4)
	if err != nil {
		t.Fatalf("SettingsForUser failed: %v", err)
	}
	if settings.Plan != "pro" {
		t.Fatalf("expected reconciled settings plan pro, got %q", settings.Plan)
	}
}

func TestSyncSubscriptionStoresUnmappedPriceAsFree(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := NewService(repo)

	sub, effective, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		UserID:                 4,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_1",
		ProviderPlanRef:        "price_unmapped",
		BillingInterval:        "month",
		Status:                 models.BillingStatusActive,
	})
	if err != nil {
		t.Fatalf("SyncSubscription failed: %v", err)
	}
	if sub.InternalPlan != "free" {
		t.Fatalf("expected unmapped price to store as free, got %q", sub.InternalPlan)
	}
	if effective != "free" {
		t.Fatalf("expected effective plan free, got %q", effective)
	}
	if sub.ProviderPlanRef != "price_unmapped" {
		t.Fatalf("expected the original price ref to be kept, got %q", sub.ProviderPlanRef)
	}
}

func TestSyncSubscriptionWithoutPriceRefIsFree(t *testing.T) {
	svc := NewService(newFakeBillingRepo())

	sub, effective, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		UserID:                 2,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_nopriceref",
		Status:                 models.BillingStatusActive,
	})
	if err != nil {
		t.Fatalf("SyncSubscription failed: %v", err)
	}
	if sub.InternalPlan != "free" || effective != "free" {
		t.Fatalf("expected free without a price ref, got plan %q effective %q", sub.InternalPlan, effective)
	}
}

func TestReconcileUserPlanPicksBestEntitlingSubscription(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := NewService(repo)

	for i, fixture := range []struct {
		plan   string
		status string
	}{
		{plan: "team", status: models.BillingStatusCanceled},
		{plan: "pro", status: models.BillingStatusActive},
		{plan: "free", status: models.BillingStatusActive},
	} {
		if err := repo.SaveSubscription(&models.BillingSubscription{
			UserID:                 11,
			Provider:               "stripe",
			ProviderSubscriptionID: fmt.Sprintf("sub_%d", i),
			InternalPlan:           fixture.plan,
			Status:                 fixture.status,
		}); err != nil {
			t.Fatalf("seed subscription failed: %v", err)
		}
	}

	effective, err := svc.ReconcileUserPlan(context.Background(), 11)
	if err != nil {
		t.Fatalf("ReconcileUserPlan failed: %v", err)
	}
	if effective != "pro" {
		t.Fatalf("expected pro (canceled team does not entitle), got %q", effective)
	}
}

func TestRecordWebhookEventDedupsRedeliveries(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := NewService(repo)

	in := WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "customer.subscription.updated",
		PayloadJSON:     `{"id":"evt_1"}`,
		SignatureValid:  true,
	}

	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("RecordWebhookEvent failed: %v", err)
	}
	if !created {
		t.Fatal("expected the first delivery to create the event")
	}

	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if created {
		t.Fatal("expected the redelivery to collapse onto the stored event")
	}
	if second.ID != first.ID {
		t.Fatalf("redelivery returned a different row: %d vs %d", second.ID, first.ID)
	}
}

func TestRecordWebhookEventHashesMissingEventID(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := NewService(repo)

	in := WebhookEventInput{Provider: "stripe", EventType: "unparseable", PayloadJSON: "not json"}

	created, _, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("RecordWebhookEvent failed: %v", err)
	}
	if !created {
		t.Fatal("expected the first delivery to create the event")
	}

	created, _, err = svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if created {
		t.Fatal("expected the identical payload to dedup on its hash")
	}
}
