package security

import (
	"strings"
	"testing"
	"time"
)

func TestActionTokenRoundTrip(t *testing.T) {
	token, err := GenerateActionToken(42, "b7e3f0c1-1111-2222-3333-444455556666", ActionCancelBooking, time.Hour, "s3cret")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := VerifyActionToken(token, "s3cret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != 42 || claims.Action != ActionCancelBooking {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.BookingID != "b7e3f0c1-1111-2222-3333-444455556666" {
		t.Fatalf("unexpected booking id: %s", claims.BookingID)
	}
}

func TestActionTokenWrongSecret(t *testing.T) {
	token, err := GenerateActionToken(1, "bid", ActionConfirmBooking, time.Hour, "secret-a")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := VerifyActionToken(token, "secret-b"); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestActionTokenExpired(t *testing.T) {
	token, err := GenerateActionToken(1, "bid", ActionCancelBooking, -time.Minute, "secret")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := VerifyActionToken(token, "secret"); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestActionTokenTampered(t *testing.T) {
	token, err := GenerateActionToken(1, "bid", ActionCancelBooking, time.Hour, "secret")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]
	if _, err := VerifyActionToken(tampered, "secret"); err == nil {
		t.Fatal("expected tampered token to fail")
	}

	if _, err := VerifyActionToken("not-a-token", "secret"); err == nil {
		t.Fatal("expected malformed token to fail")
	}
	if _, err := VerifyActionToken(token, ""); err == nil {
		t.Fatal("expected empty secret to fail")
	}
}
