package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAllowedMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleEditor, CapAssetsRead, true},
		{RoleAdmin, CapAssetsRead, true},
		{RoleAuthor, CapAssetsRead, false},
		{RoleAuthor, CapAssetsWrite, true},
		{RoleEditor, CapAssetsWrite, true},
		{RoleAdmin, CapAssetsWrite, true},
		{RoleEditor, CapAssetsDelete, true},
		{RoleAdmin, CapAssetsDelete, true},
		{RoleAuthor, CapAssetsDelete, false},
		{Role("guest"), CapAssetsRead, false},
	}
	for _, tt := range tests {
		if got := Allowed(tt.role, tt.cap); got != tt.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Role
		wantErr bool
	}{
		{"editor", RoleEditor, false},
		{"  Admin ", RoleAdmin, false},
		{"AUTHOR", RoleAuthor, false},
		{"", "", true},
		{"superuser", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"
	signed, expiresAt, err := GenerateToken("user-1", "editor", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("expiry %s too soon", expiresAt)
	}

	parsed, err := jwt.ParseWithClaims(signed, new(Claims), func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Role != "editor" {
		t.Errorf("role = %q, want editor", claims.Role)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	t.Parallel()

	signed, _, err := GenerateToken("user-1", "editor", "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := jwt.ParseWithClaims(signed, new(Claims), func(token *jwt.Token) (any, error) {
		return []byte("secret-b"), nil
	}); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}
