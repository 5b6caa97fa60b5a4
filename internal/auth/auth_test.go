package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

func setSecret(t *testing.T) {
	t.Helper()
	t.Setenv("OPERTRACK_AUTH_SECRET", "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
}

func TestGenerateAndValidate(t *testing.T) {
	setSecret(t)

	token, err := GenerateToken("uid-42", "ana@example.com", "Ana", 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "uid-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Email != "ana@example.com" || claims.Name != "Ana" {
		t.Fatalf("profile claims were not preserved: %+v", claims)
	}
}

func TestParseAndValidateRejectsGarbage(t *testing.T) {
	setSecret(t)

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := ParseAndValidate(token); err == nil {
			t.Fatalf("expected rejection for %q", token)
		}
	}
}

func TestParseAndValidateRejectsExpired(t *testing.T) {
	setSecret(t)

	token, err := GenerateToken("uid-7", "", "", time.Millisecond)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseAndValidate(token); err == nil {
		t.Fatal("expected expired token rejection")
	}
}

func TestGenerateRequiresSubject(t *testing.T) {
	setSecret(t)
	if _, err := GenerateToken("  ", "", "", time.Minute); err == nil {
		t.Fatal("expected error for blank subject")
	}
}

func TestMissingSecret(t *testing.T) {
	t.Setenv("OPERTRACK_AUTH_SECRET", "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	_, err := GenerateToken("uid", "", "", time.Minute)
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	p := Principal{Subject: "uid-1", Email: "x@y.z", Admin: true, Active: true}
	ctx = ContextWithPrincipal(ctx, p)

	got, ok := PrincipalFromContext(ctx)
	if !ok || got.Subject != "uid-1" || !got.Admin {
		t.Fatalf("unexpected principal: %+v ok=%v", got, ok)
	}
	if sub, ok := SubjectFromContext(ctx); !ok || sub != "uid-1" {
		t.Fatalf("unexpected subject: %s ok=%v", sub, ok)
	}

	ctx = ContextWithToken(ctx, "raw-token")
	if tok, ok := TokenFromContext(ctx); !ok || tok != "raw-token" {
		t.Fatalf("unexpected token: %s ok=%v", tok, ok)
	}
}
