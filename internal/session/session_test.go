package session

import (
	"testing"
	"time"
)

func TestIssueDefaultsAndRoundTrip(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := clockNow
	clockNow = func() time.Time { return fixed }
	defer func() { clockNow = orig }()

	tok, err := Issue("", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.TenantID != "default" || tok.UserID != "default" {
		t.Fatalf("expected default tenant/user, got %q/%q", tok.TenantID, tok.UserID)
	}
	if tok.ExpiresIn != 3600 {
		t.Fatalf("expected ExpiresIn 3600, got %d", tok.ExpiresIn)
	}

	claims, err := Decode(tok.Opaque)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.ExpiresAt-claims.IssuedAt != 3600 {
		t.Fatalf("expected 3600s lifetime, got %d", claims.ExpiresAt-claims.IssuedAt)
	}
}

func TestIssuePreservesSuppliedIdentity(t *testing.T) {
	tok, err := Issue("acme", "u-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.TenantID != "acme" || tok.UserID != "u-1" {
		t.Fatalf("expected supplied tenant/user, got %q/%q", tok.TenantID, tok.UserID)
	}
}
