package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Demo123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "Demo123!" || !IsHashed(hash) {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if err := CheckPassword(hash, "Demo123!"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestKeepOrHash(t *testing.T) {
	hash, _ := HashPassword("secret")
	kept, err := KeepOrHash(hash, hash)
	if err != nil || kept != hash {
		t.Fatalf("the stored hash sent back should be kept")
	}
	if empty, _ := KeepOrHash("", hash); empty != "" {
		t.Fatalf("empty password stays empty")
	}

	// a chosen password that merely looks like a bcrypt hash
	lookalike := "$2a$10$" + strings.Repeat("x", 53)
	if !IsHashed(lookalike) {
		t.Fatalf("test value should have the bcrypt shape")
	}
	stored, err := KeepOrHash(lookalike, hash)
	if err != nil || stored == lookalike {
		t.Fatalf("a new password must be hashed even when hash-shaped")
	}
	if err := CheckPassword(stored, lookalike); err != nil {
		t.Fatalf("hash-shaped password should log in: %v", err)
	}
}

func TestCheckPasswordRejectsEmpty(t *testing.T) {
	if CheckPassword("", "x") == nil || CheckPassword("$2a$", "") == nil {
		t.Fatalf("empty inputs never match")
	}
}
