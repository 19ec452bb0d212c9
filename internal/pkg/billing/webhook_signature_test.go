package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signStripePayload(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_123","type":"customer.subscription.updated"}`)
	secret := "whsec_test"
	now := time.Now()

	header := signStripePayload(t, payload, secret, now)
	if !VerifyStripeWebhookSignature(payload, header, secret, DefaultWebhookTolerance, now) {
		t.Fatal("valid signature rejected")
	}

	if VerifyStripeWebhookSignature(payload, header, "whsec_other", DefaultWebhookTolerance, now) {
		t.Fatal("signature accepted with wrong secret")
	}
	if VerifyStripeWebhookSignature([]byte(`{"tampered":true}`), header, secret, DefaultWebhookTolerance, now) {
		t.Fatal("signature accepted for tampered payload")
	}
	if VerifyStripeWebhookSignature(payload, "", secret, DefaultWebhookTolerance, now) {
		t.Fatal("empty header accepted")
	}
	if VerifyStripeWebhookSignature(payload, header, "", DefaultWebhookTolerance, now) {
		t.Fatal("empty secret accepted")
	}
}

func TestVerifyStripeWebhookSignatureTolerance(t *testing.T) {
	payload := []byte(`{"id":"evt_123"}`)
	secret := "whsec_test"
	now := time.Now()

	stale := signStripePayload(t, payload, secret, now.Add(-10*time.Minute))
	if VerifyStripeWebhookSignature(payload, stale, secret, DefaultWebhookTolerance, now) {
		t.Fatal("stale timestamp accepted")
	}
	if !VerifyStripeWebhookSignature(payload, stale, secret, 0, now) {
		t.Fatal("tolerance zero should disable the replay window")
	}
}

func TestVerifyStripeWebhookSignatureMultipleV1(t *testing.T) {
	payload := []byte(`{"id":"evt_123"}`)
	secret := "whsec_test"
	now := time.Now()

	good := signStripePayload(t, payload, secret, now)
	// A rotated-secret header carries an old v1 first and the valid one second.
	header := fmt.Sprintf("t=%d,v1=%s,%s", now.Unix(), hex.EncodeToString(make([]byte, 32)), good[len(fmt.Sprintf("t=%d,", now.Unix())):])
	if !VerifyStripeWebhookSignature(payload, header, secret, DefaultWebhookTolerance, now) {
		t.Fatal("valid second v1 entry rejected")
	}
}
