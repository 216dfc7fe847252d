package jwthandling

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Run("access token resolves to the same subject", func(t *testing.T) {
		token, err := GenerateAccessToken(time.Minute, "user-1", "access-secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		claims, err := ValidateSessionToken(token, "access-secret", TOKEN_USE_ACCESS)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claims.Subject != "user-1" {
			t.Errorf("unexpected subject: %s", claims.Subject)
		}
	})

	t.Run("refresh tokens are unique per issuance", func(t *testing.T) {
		t1, err := GenerateRefreshToken(time.Hour, "user-1", "refresh-secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		t2, err := GenerateRefreshToken(time.Hour, "user-1", "refresh-secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if t1 == t2 {
			t.Error("two refresh tokens for the same user should differ")
		}
	})
}

func TestValidateSessionToken(t *testing.T) {
	t.Run("with wrong secret", func(t *testing.T) {
		token, err := GenerateAccessToken(time.Minute, "user-1", "access-secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := ValidateSessionToken(token, "other-secret", TOKEN_USE_ACCESS); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("with expired token", func(t *testing.T) {
		token, err := GenerateAccessToken(-time.Minute, "user-1", "access-secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := ValidateSessionToken(token, "access-secret", TOKEN_USE_ACCESS); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("with token minted for a different use", func(t *testing.T) {
		token, err := GenerateRefreshToken(time.Hour, "user-1", "same-secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := ValidateSessionToken(token, "same-secret", TOKEN_USE_ACCESS); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("with garbage input", func(t *testing.T) {
		if _, err := ValidateSessionToken("not.a.token", "access-secret", TOKEN_USE_ACCESS); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid, got %v", err)
		}
	})
}
