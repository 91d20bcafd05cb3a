package utils

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 42, "dentist", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}
	if time.Until(tok.Exp) <= 0 {
		t.Errorf("token already expired: %v", tok.Exp)
	}

	id, role, err := ParseAccessToken("test-secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if id != 42 || role != "dentist" {
		t.Errorf("claims = (%d, %q), want (42, dentist)", id, role)
	}
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret-a", 1, "assistant", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, _, err := ParseAccessToken("secret-b", tok.Token); err != ErrInvalidToken {
		t.Errorf("wrong secret accepted, err = %v", err)
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 1, "dentist", -1)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, _, err := ParseAccessToken("test-secret", tok.Token); err != ErrInvalidToken {
		t.Errorf("expired token accepted, err = %v", err)
	}
}

func TestParseAccessTokenGarbage(t *testing.T) {
	if _, _, err := ParseAccessToken("test-secret", "not.a.jwt"); err != ErrInvalidToken {
		t.Errorf("garbage token accepted, err = %v", err)
	}
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("password stored in the clear")
	}
	if err := VerifyPassword(hash, "hunter22"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := VerifyPassword(hash, "hunter23"); err == nil {
		t.Error("wrong password accepted")
	}
}
