package token

import (
	"errors"
	"testing"
	"time"

	usecase "tourbook/backend/internal/usecase/auth"
)

func TestJWTManager_IssueAndVerify(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("super-secret", time.Hour, "tourbook")
	token, expiresAt, err := m.Issue("identity-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 59*time.Minute || remaining > 61*time.Minute {
		t.Fatalf("expiry should be ~1h out, got %s", remaining)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SubjectID != "identity-123" {
		t.Fatalf("subject = %q, want identity-123", claims.SubjectID)
	}
	if claims.IssuedAt.IsZero() {
		t.Fatal("issuedAt must be populated")
	}
}

func TestJWTManager_Expired(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("super-secret", time.Hour, "tourbook")
	issued := time.Now().Add(-2 * time.Hour)
	m.nowFunc = func() time.Time { return issued }
	token, _, err := m.Issue("identity-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.nowFunc = time.Now
	if _, err := m.Verify(token); !errors.Is(err, usecase.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := NewJWTManager("right-secret", time.Hour, "tourbook").Issue("identity-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewJWTManager("wrong-secret", time.Hour, "tourbook")
	if _, err := other.Verify(token); !errors.Is(err, usecase.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestJWTManager_Malformed(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("super-secret", time.Hour, "tourbook")
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Verify(token); !errors.Is(err, usecase.ErrTokenInvalid) {
			t.Errorf("Verify(%q): expected ErrTokenInvalid, got %v", token, err)
		}
	}
}
