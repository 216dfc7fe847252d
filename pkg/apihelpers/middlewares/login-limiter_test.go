package middlewares

import (
	"testing"
	"time"
)

func TestLoginLimiter(t *testing.T) {
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLoginLimiter(LoginLimiterConfig{Window: 10 * time.Minute, MaxAttempts: 3})
	limiter.now = func() time.Time { return current }

	t.Run("allows up to the limit within a window", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if !limiter.allow("10.0.0.1") {
				t.Fatalf("attempt %d should be allowed", i+1)
			}
		}
		if limiter.allow("10.0.0.1") {
			t.Error("attempt above the limit should be blocked")
		}
	})

	t.Run("tracks addresses independently", func(t *testing.T) {
		if !limiter.allow("10.0.0.2") {
			t.Error("a different address should not be affected")
		}
	})

	t.Run("resets after the window elapses", func(t *testing.T) {
		current = current.Add(10 * time.Minute)
		if !limiter.allow("10.0.0.1") {
			t.Error("should be allowed again after the window")
		}
	})
}
