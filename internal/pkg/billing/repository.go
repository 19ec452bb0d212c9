package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doorstep-market/doorstep/app/models"
)

// Repository is the row store behind the billing service. Accounts and
// subscriptions are keyed by their provider reference so webhook deliveries
// can be applied without knowing local IDs; webhook events insert through
// RecordEventOnce so redelivered payloads collapse onto the first row.
type Repository interface {
	ActivePlanMapping(provider, priceRef, interval string) (*models.BillingPlanMapping, error)
	SaveAccount(account *models.BillingAccount) error
	AccountByProviderRef(provider, providerAccountID string) (*models.BillingAccount, error)
	SaveSubscription(sub *models.BillingSubscription) error
	SubscriptionsForUser(userID uint) ([]models.BillingSubscription, error)
	SettingsForUser(userID uint) (*models.UserSettings, error)
	SaveSettings(us *models.UserSettings) error
	RecordEventOnce(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	StampEventProcessed(id uint, processingError string) error
}

type gormBillingRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormBillingRepository{db: db}
}

// ActivePlanMapping looks up the plan a Stripe price ID maps to for the given
// billing interval. Inactive mappings are invisible; retiring a price is a
// flag flip, not a delete.
func (r *gormBillingRepository) ActivePlanMapping(provider, priceRef, interval string) (*models.BillingPlanMapping, error) {
	var mapping models.BillingPlanMapping
	err := r.db.
		Where("provider = ? AND provider_plan_ref = ? AND billing_interval = ? AND is_active = ?",
			provider, priceRef, interval, true).
		First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// SaveAccount upserts on (provider, provider_account_id): relinking a Stripe
// customer to a different agent moves the account rather than duplicating it.
// The row is read back so the caller sees the surviving ID.
func (r *gormBillingRepository) SaveAccount(account *models.BillingAccount) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "email", "access_token_enc", "refresh_token_enc", "token_expires_at", "updated_at",
		}),
	}).Create(account).Error
	if err != nil {
		return err
	}
	return r.db.
		Where("provider = ? AND provider_account_id = ?", account.Provider, account.ProviderAccountID).
		First(account).Error
}

func (r *gormBillingRepository) AccountByProviderRef(provider, providerAccountID string) (*models.BillingAccount, error) {
	var account models.BillingAccount
	err := r.db.
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SaveSubscription upserts on (provider, provider_subscription_id). Stripe
// delivers subscription events out of order after retries; last write wins
// here and ReconcileUserPlan smooths the result.
func (r *gormBillingRepository) SaveSubscription(sub *models.BillingSubscription) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "provider_plan_ref", "internal_plan", "billing_interval", "status",
			"current_period_start", "current_period_end", "cancel_at_period_end",
			"raw_payload_json", "updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		return err
	}
	return r.db.
		Where("provider = ? AND provider_subscription_id = ?", sub.Provider, sub.ProviderSubscriptionID).
		First(sub).Error
}

func (r *gormBillingRepository) SubscriptionsForUser(userID uint) ([]models.BillingSubscription, error) {
	var subs []models.BillingSubscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

func (r *gormBillingRepository) SettingsForUser(userID uint) (*models.UserSettings, error) {
	return models.GetOrCreateUserSettings(r.db, userID)
}

func (r *gormBillingRepository) SaveSettings(us *models.UserSettings) error {
	return r.db.Save(us).Error
}

// RecordEventOnce inserts a webhook event with ON CONFLICT DO NOTHING on
// (provider, provider_event_id) and reports whether this delivery created the
// row. The stored row is returned either way, so a redelivery hands the
// caller the original event with its processing state intact.
func (r *gormBillingRepository) RecordEventOnce(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, nil, res.Error
	}

	var stored models.BillingWebhookEvent
	err := r.db.
		Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error
	if err != nil {
		return false, nil, err
	}
	return res.RowsAffected > 0, &stored, nil
}

func (r *gormBillingRepository) StampEventProcessed(id uint, processingError string) error {
	now := time.Now()
	return r.db.Model(&models.BillingWebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": processingError,
		}).Error
}
