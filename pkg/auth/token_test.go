package auth

import (
	"testing"
	"time"

	"github.com/gatepasshq/gatepass-backend/pkg/config"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "gatepass-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseRoundtrip(t *testing.T) {
	cfg := testJWTConfig()

	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		Account: "acct_alice",
		Role:    enums.RoleUser,
	})
	if err != nil {
		t.Fatalf("mint error: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.Account != "acct_alice" {
		t.Fatalf("unexpected account %q", claims.Account)
	}
	if claims.Role != enums.RoleUser {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestMintValidation(t *testing.T) {
	cfg := testJWTConfig()

	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.RoleUser}); err == nil {
		t.Fatal("expected error for missing account")
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Account: "acct_a", Role: "owner"}); err == nil {
		t.Fatal("expected error for invalid role")
	}

	noSecret := cfg
	noSecret.Secret = ""
	if _, err := MintAccessToken(noSecret, time.Now(), AccessTokenPayload{Account: "acct_a", Role: enums.RoleUser}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()

	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		Account: "acct_alice",
		Role:    enums.RoleUser,
	})
	if err != nil {
		t.Fatalf("mint error: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		Account: "acct_alice",
		Role:    enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint error: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}
