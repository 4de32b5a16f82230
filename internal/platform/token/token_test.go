package token

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tok, err := svc.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Sub != 42 {
		t.Errorf("sub = %d, want 42", claims.Sub)
	}
	if claims.IssuedTime().IsZero() {
		t.Error("expected issued-at to be set")
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedTime()); got != time.Hour {
		t.Errorf("lifetime = %v, want 1h", got)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := NewService("secret-a", time.Hour).Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewService("secret-b", time.Hour).Verify(tok); err != ErrInvalid {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)
	tok, err := svc.Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Verify(tok); err != ErrInvalid {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	if _, err := svc.Verify("not-a-token"); err != ErrInvalid {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}
