package auth

import (
	"testing"
	"time"
)

func TestHMACSigner_Sign(t *testing.T) {
	s, err := NewHMACSigner("key")
	if err != nil {
		t.Fatalf("NewHMACSigner failed: %v", err)
	}

	got := s.Sign("The quick brown fox jumps over the lazy dog")
	want := "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got != want {
		t.Errorf("Sign() = %q, want %q", got, want)
	}
}

func TestHMACSigner_SignNonce(t *testing.T) {
	s, _ := NewHMACSigner("secret")
	now := time.UnixMilli(1704067200123)

	nonce, sig := s.SignNonce(now)
	if nonce != "1704067200123" {
		t.Errorf("nonce = %q, want %q", nonce, "1704067200123")
	}
	if sig != s.Sign(nonce) {
		t.Errorf("signature does not match Sign(nonce)")
	}

	other, _ := NewHMACSigner("other")
	if _, otherSig := other.SignNonce(now); otherSig == sig {
		t.Error("different secrets produced the same signature")
	}
}

func TestNewHMACSigner_EmptySecret(t *testing.T) {
	if _, err := NewHMACSigner(""); err == nil {
		t.Error("NewHMACSigner(\"\") expected error, got nil")
	}
}
