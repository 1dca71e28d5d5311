package util

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("Bank", "test-secret", "logging-api", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(token, "test-secret")
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.ApplicationName != "Bank" {
		t.Errorf("applicationName claim: got %q want %q", claims.ApplicationName, "Bank")
	}
	if claims.Issuer != "logging-api" {
		t.Errorf("issuer claim: got %q want %q", claims.Issuer, "logging-api")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("Bank", "test-secret", "logging-api", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Error("expected validation to fail with the wrong secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("Bank", "test-secret", "logging-api", -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(token, "test-secret"); err == nil {
		t.Error("expected validation to fail for an expired token")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", "test-secret"); err == nil {
		t.Error("expected validation to fail for a malformed token")
	}
}
