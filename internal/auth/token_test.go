package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret-one", time.Hour)

	tok, err := issuer.Issue("sess-1", "uid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sid, uid, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sid != "sess-1" || uid != "uid-1" {
		t.Fatalf("claims = (%q, %q)", sid, uid)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer("secret-one", time.Hour).Issue("sess-1", "uid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := NewTokenIssuer("secret-two", time.Hour).Verify(tok); err == nil {
		t.Fatal("token verified under the wrong secret")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tok, err := NewTokenIssuer("secret-one", -time.Minute).Issue("sess-1", "uid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := NewTokenIssuer("secret-one", -time.Minute).Verify(tok); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret-one", time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, _, err := issuer.Verify(tok); err == nil {
			t.Fatalf("garbage token %q verified", tok)
		}
	}
}
