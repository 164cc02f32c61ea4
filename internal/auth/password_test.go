package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("password stored in plaintext")
	}
	if errCmp := ComparePassword(hash, "correct horse"); errCmp != nil {
		t.Fatalf("expected match: %v", errCmp)
	}
	if errCmp := ComparePassword(hash, "wrong"); errCmp == nil {
		t.Fatalf("expected mismatch")
	}
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	hash, err := HashPassword("pw", 99)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d (%v)", cost, err)
	}
}
