package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

type StripeClient struct {
	SecretKey     string
	WebhookSecret string
	APIBaseURL    string

	HTTPClient *http.Client
}

// StripeCheckoutSession is the subset of a checkout session we act on.
type StripeCheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StripeSubscription is the subset of a subscription object the sync needs.
type StripeSubscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceIDs           []string
	Interval           string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// PrimaryPriceID returns the subscription's first price ID. Marketplace
// subscriptions carry a single item; when Stripe ever sends more, the first
// one is the plan price.
func (s *StripeSubscription) PrimaryPriceID() string {
	if len(s.PriceIDs) == 0 {
		return ""
	}
	return s.PriceIDs[0]
}

// StripeCheckoutCompletion is the subset of a completed checkout session the
// account linking step needs. UserID comes back through client_reference_id,
// which CreateCheckoutSession sets when the checkout is started.
type StripeCheckoutCompletion struct {
	SessionID      string
	CustomerID     string
	SubscriptionID string
	UserID         uint
	CustomerEmail  string
}

// StripeWebhookEvent is a parsed webhook envelope plus, for the event types we
// act on, the embedded object.
type StripeWebhookEvent struct {
	EventID      string
	EventType    string
	Subscription *StripeSubscription
	Checkout     *StripeCheckoutCompletion
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		APIBaseURL:    strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateCheckoutSession starts a subscription checkout for a price and
// returns the hosted payment page URL.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, priceID, customerEmail, successURL, cancelURL string, userID uint) (*StripeCheckoutSession, error) {
	if strings.TrimSpace(priceID) == "" {
		return nil, errors.New("price id is required")
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", strings.TrimSpace(priceID))
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", strconv.FormatUint(uint64(userID), 10))
	if e := strings.TrimSpace(customerEmail); e != "" {
		form.Set("customer_email", e)
	}

	body, err := c.post(ctx, "/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var out StripeCheckoutSession
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.URL) == "" {
		return nil, errors.New("stripe checkout session returned empty url")
	}
	return &out, nil
}

// GetCustomerEmail resolves a customer id to its email address.
func (c *StripeClient) GetCustomerEmail(ctx context.Context, customerID string) (string, error) {
	id := strings.TrimSpace(customerID)
	if id == "" {
		return "", errors.New("customer id is required")
	}

	body, err := c.get(ctx, "/customers/"+url.PathEscape(id))
	if err != nil {
		return "", err
	}

	var raw struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw.Email), nil
}

func (c *StripeClient) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.APIBaseURL, "/")+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *StripeClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.APIBaseURL, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *StripeClient) do(req *http.Request) ([]byte, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}

// ParseStripeWebhookEvent decodes a webhook envelope. Subscription lifecycle
// events carry the subscription object in data.object; other event types come
// back with a nil Subscription and are recorded but not acted on.
func ParseStripeWebhookEvent(payload []byte) (*StripeWebhookEvent, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe webhook payload missing event id")
	}

	out := &StripeWebhookEvent{
		EventID:   strings.TrimSpace(raw.ID),
		EventType: strings.TrimSpace(raw.Type),
	}

	switch {
	case strings.HasPrefix(out.EventType, "customer.subscription.") && len(raw.Data.Object) > 0:
		sub, err := parseStripeSubscription(raw.Data.Object)
		if err != nil {
			return nil, err
		}
		out.Subscription = sub
	case out.EventType == "checkout.session.completed" && len(raw.Data.Object) > 0:
		checkout, err := parseStripeCheckoutCompletion(raw.Data.Object)
		if err != nil {
			return nil, err
		}
		out.Checkout = checkout
	}
	return out, nil
}

func parseStripeCheckoutCompletion(object json.RawMessage) (*StripeCheckoutCompletion, error) {
	var raw struct {
		ID                string `json:"id"`
		Customer          string `json:"customer"`
		Subscription      string `json:"subscription"`
		ClientReferenceID string `json:"client_reference_id"`
		CustomerDetails   struct {
			Email string `json:"email"`
		} `json:"customer_details"`
	}
	if err := json.Unmarshal(object, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe checkout session object missing id")
	}

	out := &StripeCheckoutCompletion{
		SessionID:      strings.TrimSpace(raw.ID),
		CustomerID:     strings.TrimSpace(raw.Customer),
		SubscriptionID: strings.TrimSpace(raw.Subscription),
		CustomerEmail:  strings.TrimSpace(raw.CustomerDetails.Email),
	}
	if ref := strings.TrimSpace(raw.ClientReferenceID); ref != "" {
		if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
			out.UserID = uint(id)
		}
	}
	return out, nil
}

func parseStripeSubscription(object json.RawMessage) (*StripeSubscription, error) {
	var raw struct {
		ID                 string `json:"id"`
		Customer           string `json:"customer"`
		Status             string `json:"status"`
		CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
		CurrentPeriodStart int64  `json:"current_period_start"`
		CurrentPeriodEnd   int64  `json:"current_period_end"`
		Items              struct {
			Data []struct {
				Price struct {
					ID        string `json:"id"`
					Recurring struct {
						Interval string `json:"interval"`
					} `json:"recurring"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(object, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe subscription object missing id")
	}

	out := &StripeSubscription{
		ID:                strings.TrimSpace(raw.ID),
		CustomerID:        strings.TrimSpace(raw.Customer),
		Status:            strings.TrimSpace(raw.Status),
		CancelAtPeriodEnd: raw.CancelAtPeriodEnd,
	}
	if raw.CurrentPeriodStart > 0 {
		t := time.Unix(raw.CurrentPeriodStart, 0).UTC()
		out.CurrentPeriodStart = &t
	}
	if raw.CurrentPeriodEnd > 0 {
		t := time.Unix(raw.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &t
	}
	for _, item := range raw.Items.Data {
		if id := strings.TrimSpace(item.Price.ID); id != "" {
			out.PriceIDs = append(out.PriceIDs, id)
			if out.Interval == "" {
				out.Interval = strings.TrimSpace(item.Price.Recurring.Interval)
			}
		}
	}
	return out, nil
}

// StripeStatusToBillingStatus maps Stripe subscription statuses onto the
// local billing status vocabulary.
func StripeStatusToBillingStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		return models.BillingStatusActive
	case "past_due", "unpaid":
		return models.BillingStatusPastDue
	case "canceled":
		return models.BillingStatusCanceled
	default:
		return models.BillingStatusIncomplete
	}
}
