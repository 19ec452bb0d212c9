package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/app/repository"
	"github.com/doorstep-market/doorstep/internal/pkg/billing"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
	"github.com/doorstep-market/doorstep/internal/pkg/entitlements"
	"github.com/doorstep-market/doorstep/internal/pkg/env"
	"github.com/doorstep-market/doorstep/internal/pkg/usercontext"
)

type checkoutRequest struct {
	Plan string `json:"plan"`
}

// HandleBillingCheckout starts a Stripe subscription checkout for a paid plan
// and returns the hosted payment page URL.
func HandleBillingCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	var priceID string
	switch entitlements.Plan(strings.ToLower(strings.TrimSpace(req.Plan))) {
	case entitlements.PlanPro:
		priceID = env.GetEnv("STRIPE_PRICE_PRO", "")
	case entitlements.PlanTeam:
		priceID = env.GetEnv("STRIPE_PRICE_TEAM", "")
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "plan must be pro or team"})
	}
	if priceID == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "billing_unavailable", "message": "Checkout is not configured for this plan"})
	}

	account, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	baseURL := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	client := billing.NewStripeClientFromEnv()
	session, err := client.CreateCheckoutSession(
		c.Context(),
		priceID,
		account.Email,
		baseURL+"/billing/checkout/success",
		baseURL+"/billing/checkout/cancelled",
		userCtx.UserID,
	)
	if err != nil {
		log.Errorf("stripe checkout for user %d failed: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": "Failed to start checkout"})
	}

	return c.JSON(fiber.Map{"checkout_url": session.URL, "session_id": session.ID})
}

// HandleBillingResync recomputes the current user's effective plan from the
// stored subscriptions. Useful when a webhook was missed.
func HandleBillingResync(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	plan, err := svc.ReconcileUserPlan(c.Context(), userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to reconcile plan"})
	}
	return c.JSON(fiber.Map{"plan": plan})
}

// HandleStripeWebhook ingests Stripe webhook deliveries. Every delivery is
// recorded before any processing so replays short-circuit on the stored event
// id; Stripe only stops retrying on a 2xx, so processing failures are stored
// on the event rather than surfaced as errors.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	signatureValid := billing.VerifyStripeWebhookSignature(payload, c.Get("Stripe-Signature"), secret, billing.DefaultWebhookTolerance, time.Now())

	event, parseErr := billing.ParseStripeWebhookEvent(payload)

	svc := billing.NewServiceFromDB(database.GetDB())
	in := billing.WebhookEventInput{
		Provider:       models.BillingProviderStripe,
		EventType:      "unparseable",
		PayloadJSON:    string(payload),
		SignatureValid: signatureValid,
	}
	if event != nil {
		in.ProviderEventID = event.EventID
		in.EventType = event.EventType
	}

	created, record, err := svc.RecordWebhookEvent(c.Context(), in)
	if err != nil {
		log.Errorf("failed to record stripe webhook: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record event"})
	}

	if !signatureValid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature", "message": "Webhook signature verification failed"})
	}
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Malformed webhook payload"})
	}
	if !created {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	processErr := processStripeEvent(c, svc, event, string(payload))
	if err := svc.MarkWebhookProcessed(c.Context(), record.ID, processErr); err != nil {
		log.Errorf("failed to mark stripe webhook %s processed: %v", event.EventID, err)
	}
	if processErr != nil {
		log.Warnf("stripe webhook %s (%s) stored with processing error: %v", event.EventID, event.EventType, processErr)
	}

	return c.JSON(fiber.Map{"received": true})
}

func processStripeEvent(c *fiber.Ctx, svc *billing.Service, event *billing.StripeWebhookEvent, rawPayload string) error {
	switch {
	case event.Checkout != nil:
		return linkStripeAccount(c, svc, event.Checkout)
	case event.Subscription != nil:
		return syncStripeSubscription(c, svc, event.Subscription, rawPayload)
	default:
		// Recorded for audit, nothing to do.
		return nil
	}
}

func linkStripeAccount(c *fiber.Ctx, svc *billing.Service, checkout *billing.StripeCheckoutCompletion) error {
	if checkout.UserID == 0 {
		return fmt.Errorf("checkout session %s has no client_reference_id", checkout.SessionID)
	}
	if checkout.CustomerID == "" {
		return fmt.Errorf("checkout session %s has no customer", checkout.SessionID)
	}

	email := checkout.CustomerEmail
	if email == "" {
		if resolved, err := billing.NewStripeClientFromEnv().GetCustomerEmail(c.Context(), checkout.CustomerID); err == nil {
			email = resolved
		}
	}

	_, err := svc.LinkAccount(c.Context(), billing.LinkAccountInput{
		UserID:            checkout.UserID,
		Provider:          models.BillingProviderStripe,
		ProviderAccountID: checkout.CustomerID,
		Email:             email,
	})
	if err != nil {
		return err
	}
	log.Infof("linked stripe customer %s to user %d", checkout.CustomerID, checkout.UserID)
	return nil
}

func syncStripeSubscription(c *fiber.Ctx, svc *billing.Service, sub *billing.StripeSubscription, rawPayload string) error {
	account, err := svc.AccountByProviderRef(c.Context(), models.BillingProviderStripe, sub.CustomerID)
	if err != nil {
		return fmt.Errorf("no billing account for stripe customer %s: %w", sub.CustomerID, err)
	}

	// SyncSubscription resolves the price to a plan itself and stores
	// unmapped prices as free, so nothing to pre-resolve here.
	_, effectivePlan, err := svc.SyncSubscription(c.Context(), billing.NormalizedSubscription{
		UserID:                 account.UserID,
		Provider:               models.BillingProviderStripe,
		ProviderSubscriptionID: sub.ID,
		ProviderPlanRef:        sub.PrimaryPriceID(),
		BillingInterval:        sub.Interval,
		Status:                 billing.StripeStatusToBillingStatus(sub.Status),
		CurrentPeriodStart:     sub.CurrentPeriodStart,
		CurrentPeriodEnd:       sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
		RawPayloadJSON:         rawPayload,
	})
	if err != nil {
		return err
	}

	log.Infof("synced stripe subscription %s for user %d, effective plan %s", sub.ID, account.UserID, effectivePlan)
	return nil
}
