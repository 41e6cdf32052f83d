package auth

import (
	"context"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db, ttl)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected generated user id")
	}
	if user.PasswordHash == "correct-horse" {
		t.Error("Password stored in plain text")
	}

	token, err := svc.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	userID, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if userID != user.ID {
		t.Errorf("Expected user id %q, got %q", user.ID, userID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@example.com", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Register(ctx, "BOB@example.com", "password456"); err != ErrEmailTaken {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "password123"); err == nil {
		t.Error("Expected error for invalid email")
	}
	if _, err := svc.Register(ctx, "carol@example.com", "short"); err == nil {
		t.Error("Expected error for short password")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dave@example.com", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Login(ctx, "dave@example.com", "wrong-password"); err != ErrInvalidCredentials {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password123"); err != ErrInvalidCredentials {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := svc.Authenticate(ctx, ""); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for empty token, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bogus"); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for unknown token, got %v", err)
	}
}
