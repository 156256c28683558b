package auth

import (
	"testing"
	"time"

	"callhistory/internal/config"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "user-1", "device-1", "reader")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.DeviceID != "device-1" || claims.Role != "reader" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), "u", "w", "r")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expected token_type mismatch")
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", JWTIssuer: "callhistory", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	now := time.Unix(1700000000, 0)
	p, err := m.IssuePair(now, "u", "phone-1", "owner")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !p.AccessExpiresAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected expiry %v", p.AccessExpiresAt)
	}
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now.Add(2*time.Minute)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now.Add(time.Minute+10*time.Second)); err != nil {
		t.Fatalf("expected leeway to cover skew: %v", err)
	}

	other, _ := NewManager(config.AuthConfig{JWTSecret: "other", JWTIssuer: "callhistory", AccessTokenTTL: time.Minute})
	if _, err := other.Verify(p.AccessToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	wrongIssuer, _ := NewManager(config.AuthConfig{JWTSecret: "secret", JWTIssuer: "elsewhere", AccessTokenTTL: time.Minute})
	if _, err := wrongIssuer.Verify(p.AccessToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}
