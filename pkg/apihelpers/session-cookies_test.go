package apihelpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestSetSessionCookies(t *testing.T) {
	w := httptest.NewRecorder()
	SetSessionCookies(w, "access-value", "refresh-value", 900, 604800, CookieConfig{Secure: true})

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}

	access := findCookie(t, cookies, CookieNameAccessToken)
	refresh := findCookie(t, cookies, CookieNameRefreshToken)

	for _, c := range []*http.Cookie{access, refresh} {
		if !c.HttpOnly {
			t.Errorf("%s should be HttpOnly", c.Name)
		}
		if !c.Secure {
			t.Errorf("%s should be Secure", c.Name)
		}
		if c.SameSite != http.SameSiteStrictMode {
			t.Errorf("%s should be SameSite=Strict", c.Name)
		}
		if c.Path != "/" {
			t.Errorf("%s has unexpected path %s", c.Name, c.Path)
		}
	}

	if access.Value != "access-value" || refresh.Value != "refresh-value" {
		t.Error("cookie values do not match the tokens")
	}
	if access.MaxAge != 900 || refresh.MaxAge != 604800 {
		t.Errorf("unexpected max ages: %d, %d", access.MaxAge, refresh.MaxAge)
	}
}

func TestClearSessionCookies(t *testing.T) {
	w := httptest.NewRecorder()
	ClearSessionCookies(w, CookieConfig{Secure: true})

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}

	// deletion requires attribute parity with the set call
	for _, c := range cookies {
		if c.MaxAge >= 0 {
			t.Errorf("%s should have a negative MaxAge", c.Name)
		}
		if c.Value != "" {
			t.Errorf("%s should be emptied", c.Name)
		}
		if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode || c.Path != "/" {
			t.Errorf("%s attributes differ from set time", c.Name)
		}
	}
}
