package helpers

import (
	"testing"
	"time"
)

func testManager() *JWTManager {
	return NewJWTManager("access-secret", "refresh-secret", time.Minute, time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	tok, exp, err := m.GenerateAccessToken("user-1", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatal("expiry should be in the future")
	}
	claims, err := m.ParseAccessToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestAccessAndRefreshSecretsAreSeparate(t *testing.T) {
	m := testManager()
	access, _, err := m.GenerateAccessToken("user-1", "customer")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseRefreshToken(access); err == nil {
		t.Fatal("access token must not validate as a refresh token")
	}

	refresh, _, err := m.GenerateRefreshToken("user-1", "customer")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseAccessToken(refresh); err == nil {
		t.Fatal("refresh token must not validate as an access token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", -time.Minute, time.Hour)
	tok, _, err := m.GenerateAccessToken("user-1", "customer")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseAccessToken(tok); err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestForeignSecretRejected(t *testing.T) {
	a := testManager()
	b := NewJWTManager("other-secret", "other-refresh", time.Minute, time.Hour)
	tok, _, err := a.GenerateAccessToken("user-1", "customer")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ParseAccessToken(tok); err == nil {
		t.Fatal("token signed with a different secret should be rejected")
	}
}
