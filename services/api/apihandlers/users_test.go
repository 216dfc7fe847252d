package apihandlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	"github.com/vidtube/vidtube-backend/pkg/user-management/pwhash"
)

func newUserTestServer(store *memUserStore) (*HttpEndpoints, *gin.Engine) {
	h := NewHTTPHandler(store, nil, nil, TokenConfig{
		AccessSignKey:    testAccessSignKey,
		RefreshSignKey:   testRefreshSignKey,
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: 7 * 24 * time.Hour,
	}, apihelpers.CookieConfig{Secure: true})

	router := gin.New()
	rg := router.Group("/v1")
	noLimit := func(c *gin.Context) { c.Next() }
	h.AddAuthAPI(rg, noLimit)
	h.AddUserAPI(rg)
	return h, router
}

func loginTestUser(t *testing.T, router *gin.Engine, username string) *http.Cookie {
	t.Helper()
	w := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
		"username": username,
		"password": testPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d: %s", w.Code, w.Body.String())
	}
	cookie := findCookie(w, apihelpers.CookieNameAccessToken)
	if cookie == nil {
		t.Fatal("no access token cookie after login")
	}
	return cookie
}

func TestGetCurrentUser(t *testing.T) {
	store := newMemUserStore()
	_, router := newUserTestServer(store)
	addTestUser(t, store, "frank")
	accessCookie := loginTestUser(t, router, "frank")

	w := doJSONRequest(router, http.MethodGet, "/v1/users/me", nil, accessCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := responseEnvelope(t, w)
	data := resp["data"].(map[string]interface{})
	if data["username"] != "frank" {
		t.Errorf("expected username frank, got %v", data["username"])
	}

	t.Run("unauthenticated", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodGet, "/v1/users/me", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestUpdateAccountDetails(t *testing.T) {
	store := newMemUserStore()
	_, router := newUserTestServer(store)
	userID := addTestUser(t, store, "grace")
	addTestUser(t, store, "heidi")
	accessCookie := loginTestUser(t, router, "grace")

	t.Run("update full name", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPatch, "/v1/users/me", gin.H{
			"fullName": "Grace G.",
		}, accessCookie)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if got := store.getUser(t, userID).FullName; got != "Grace G." {
			t.Errorf("expected full name updated, got %q", got)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPatch, "/v1/users/me", gin.H{
			"email": "nope",
		}, accessCookie)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPatch, "/v1/users/me", gin.H{}, accessCookie)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestChangePassword(t *testing.T) {
	store := newMemUserStore()
	_, router := newUserTestServer(store)
	userID := addTestUser(t, store, "ivan")
	accessCookie := loginTestUser(t, router, "ivan")

	t.Run("wrong current password", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/users/change-password", gin.H{
			"oldPassword": "WrongPass1",
			"newPassword": "NewSecret123",
		}, accessCookie)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("weak new password", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/users/change-password", gin.H{
			"oldPassword": testPassword,
			"newPassword": "short",
		}, accessCookie)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("valid change", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/users/change-password", gin.H{
			"oldPassword": testPassword,
			"newPassword": "NewSecret123",
		}, accessCookie)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		match, err := pwhash.ComparePasswordWithHash(store.getUser(t, userID).Password, "NewSecret123")
		if err != nil || !match {
			t.Error("stored hash does not verify against the new password")
		}

		loginW := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "ivan",
			"password": testPassword,
		})
		if loginW.Code != http.StatusUnauthorized {
			t.Errorf("old password must no longer work, got %d", loginW.Code)
		}
	})
}
