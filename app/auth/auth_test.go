package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue("admin", "admin")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	claims, err := issuer.Parse(token.Token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.Subject != "admin" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if token.ExpiresAt.Sub(time.Now()) > time.Hour+time.Minute {
		t.Fatalf("unexpected expiry %v", token.ExpiresAt)
	}
}

func TestParseRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue("7", "user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	other := NewTokenIssuer("other", time.Hour)
	if _, err := other.Parse(token.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for wrong secret, got %v", err)
	}

	expired := NewTokenIssuer("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue("7", "user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := issuer.Parse(old.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for expired token, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7", "exp": time.Now().Add(time.Hour).Unix()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := issuer.Parse(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for alg none, got %v", err)
	}

	if _, err := issuer.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for garbage, got %v", err)
	}
	if _, err := issuer.Issue(" ", "user"); err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !VerifyPassword(hash, "s3cret!") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
	if VerifyPassword("", "s3cret!") {
		t.Fatal("expected empty hash to fail")
	}
}
