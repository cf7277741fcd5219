package auth

import (
	"testing"
	"time"
)

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", 0); err != ErrMissingSecret {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := issuer.Issue("provider-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	providerID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if providerID != "provider-123" {
		t.Errorf("expected provider-123, got %q", providerID)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.Verify("not-a-token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuerA, _ := NewTokenIssuer("secret-a", time.Hour)
	issuerB, _ := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuerA.Issue("provider-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := issuerB.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for cross-secret token, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret", time.Nanosecond)
	token, err := issuer.Issue("provider-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := issuer.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("supersecret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "supersecret" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "supersecret") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}
