package services

import (
	"testing"
	"time"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "servicehours", AccessTTL: time.Hour}
}

func TestAccessTokenCarriesSession(t *testing.T) {
	tokens := testTokens()
	sid := int64(12)
	sess := Session{Authenticated: true, Username: "student", Role: RoleStudent, StudentID: &sid, Method: MethodLocal}
	token, exp, err := tokens.CreateAccessToken(sess)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Fatalf("expiry %d is not in the future", exp)
	}
	parsed, err := tokens.ParseSession(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Username != "student" || parsed.Role != RoleStudent || parsed.StudentID == nil || *parsed.StudentID != 12 || !parsed.Authenticated {
		t.Fatalf("unexpected session %+v", parsed)
	}
}

func TestParseSessionRejects(t *testing.T) {
	tokens := testTokens()
	sess := Session{Authenticated: true, Username: "admin", Role: RoleAdmin, Method: MethodLocal}
	token, _, err := tokens.CreateAccessToken(sess)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other := TokenService{Secret: []byte("other"), Issuer: "servicehours", AccessTTL: time.Hour}
	if _, err := other.ParseSession(token); !IsKind(err, KindAuth) {
		t.Fatalf("expected auth error for foreign signature, got %v", err)
	}
	expired := TokenService{Secret: tokens.Secret, Issuer: tokens.Issuer, AccessTTL: -time.Minute}
	old, _, err := expired.CreateAccessToken(sess)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := tokens.ParseSession(old); err == nil {
		t.Fatal("expected expired token to fail")
	}
	state, err := tokens.CreateStateToken("verifier-abc")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if _, err := tokens.ParseSession(state); err == nil {
		t.Fatal("state token must not authenticate")
	}
	verifier, ok := tokens.VerifyStateToken(state)
	if !ok || verifier != "verifier-abc" {
		t.Fatalf("state verification failed: %q %v", verifier, ok)
	}
	if _, ok := tokens.VerifyStateToken(token); ok {
		t.Fatal("access token must not pass as state")
	}
	if _, _, err := tokens.CreateAccessToken(Session{}); err == nil {
		t.Fatal("anonymous session must not get a token")
	}
}
