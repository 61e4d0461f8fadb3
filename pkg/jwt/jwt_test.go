package jwt

import (
	"testing"
	"time"
)

const testSecret = "unit-test-secret-key-32-chars!!"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken("user-123", 15*time.Minute, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("user id = %q, want %q", claims.UserID, "user-123")
	}
	if claims.TokenType != "access" {
		t.Errorf("token type = %q, want %q", claims.TokenType, "access")
	}
}

func TestGenerateRefreshTokenType(t *testing.T) {
	token, err := GenerateRefreshToken("user-123", 7*24*time.Hour, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("token type = %q, want %q", claims.TokenType, "refresh")
	}
}

func TestValidateToken(t *testing.T) {
	valid, err := GenerateToken("user-123", time.Hour, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expired, err := GenerateToken("user-123", -time.Hour, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{"valid token", valid, testSecret, false},
		{"expired token", expired, testSecret, true},
		{"wrong secret", valid, "wrong-secret", true},
		{"garbage token", "not.a.token", testSecret, true},
		{"empty token", "", testSecret, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := ValidateToken(tc.token, tc.secret)
			if tc.wantErr {
				if err == nil {
					t.Error("expected an error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.UserID != "user-123" {
				t.Errorf("user id = %q, want %q", claims.UserID, "user-123")
			}
		})
	}
}

func TestClaimsTimestamps(t *testing.T) {
	expiration := time.Hour

	before := time.Now().Add(-time.Second)
	token, err := GenerateToken("user-123", expiration, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := time.Now().Add(time.Second)

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issued := claims.IssuedAt.Time
	if issued.Before(before) || issued.After(after) {
		t.Errorf("issued at %v outside [%v, %v]", issued, before, after)
	}

	expires := claims.ExpiresAt.Time
	if expires.Before(before.Add(expiration)) || expires.After(after.Add(expiration)) {
		t.Errorf("expires at %v outside the expected window", expires)
	}
}
