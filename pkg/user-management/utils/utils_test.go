package utils

import (
	"testing"
)

func TestSanitizeEmail(t *testing.T) {
	t.Run("with different formats", func(t *testing.T) {
		email := SanitizeEmail("\nAlice@Example.COM")
		if email != "alice@example.com" {
			t.Errorf("unexpected email: %s", email)
		}

		email = SanitizeEmail("  \n alice@example.com \n\r")
		if email != "alice@example.com" {
			t.Errorf("unexpected email: %s", email)
		}
	})
}

func TestSanitizeUsername(t *testing.T) {
	t.Run("with different formats", func(t *testing.T) {
		username := SanitizeUsername("  Alice_01 \n")
		if username != "alice_01" {
			t.Errorf("unexpected username: %s", username)
		}
	})
}

func TestCheckUsernameFormat(t *testing.T) {
	t.Run("with too short name", func(t *testing.T) {
		if CheckUsernameFormat("ab") {
			t.Error("should be false")
		}
	})
	t.Run("with unsupported characters", func(t *testing.T) {
		if CheckUsernameFormat("alice smith") {
			t.Error("should be false")
		}
		if CheckUsernameFormat("Alice") {
			t.Error("should be false, usernames are sanitized to lowercase first")
		}
	})
	t.Run("with good usernames", func(t *testing.T) {
		if !CheckUsernameFormat("alice_01") {
			t.Error("should be true")
		}
		if !CheckUsernameFormat("a.l-ice") {
			t.Error("should be true")
		}
	})
}

func TestCheckPasswordFormat(t *testing.T) {
	t.Run("with a too short password", func(t *testing.T) {
		if CheckPasswordFormat("1nT6@") {
			t.Error("should be false")
		}
	})
	t.Run("with a too weak password", func(t *testing.T) {
		if CheckPasswordFormat("13342678") {
			t.Error("should be false")
		}
		if CheckPasswordFormat("11111aaaa") {
			t.Error("should be false")
		}
	})
	t.Run("with good passwords", func(t *testing.T) {
		if !CheckPasswordFormat("Secret123") {
			t.Error("should be true")
		}
		if !CheckPasswordFormat("nnnnnnT@@") {
			t.Error("should be true")
		}
		if !CheckPasswordFormat("TTTTTTTT77.") {
			t.Error("should be true")
		}
	})
}

func TestCheckEmailFormat(t *testing.T) {
	t.Run("with missing @", func(t *testing.T) {
		if CheckEmailFormat("t.t.com") {
			t.Error("should be false")
		}
	})

	t.Run("with wrong domain format", func(t *testing.T) {
		if CheckEmailFormat("t@t.") {
			t.Error("should be false")
		}
	})

	t.Run("with missing top level domain", func(t *testing.T) {
		if CheckEmailFormat("t@com") {
			t.Error("should be false")
		}
	})

	t.Run("with good email", func(t *testing.T) {
		if !CheckEmailFormat("a@x.com") {
			t.Error("should be true")
		}
	})
}
