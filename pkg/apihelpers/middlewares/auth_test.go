package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	jwthandling "github.com/vidtube/vidtube-backend/pkg/jwt-handling"
)

const testSignKey = "test-sign-key"

type fakeAccountChecker struct {
	existing map[string]bool
	err      error
}

func (f *fakeAccountChecker) UserExists(ctx context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[userID], nil
}

func newAuthTestRouter(accounts AccountChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthRequired(testSignKey, accounts), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString(ContextKeyUserID)})
	})
	return router
}

func TestAuthRequired(t *testing.T) {
	accounts := &fakeAccountChecker{existing: map[string]bool{"user-1": true}}
	router := newAuthTestRouter(accounts)

	t.Run("missing token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("valid token via bearer header", func(t *testing.T) {
		token, err := jwthandling.GenerateAccessToken(time.Minute, "user-1", testSignKey)
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("valid token via cookie", func(t *testing.T) {
		token, err := jwthandling.GenerateAccessToken(time.Minute, "user-1", testSignKey)
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: apihelpers.CookieNameAccessToken, Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := jwthandling.GenerateAccessToken(-time.Minute, "user-1", testSignKey)
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("refresh token cannot pass the gate", func(t *testing.T) {
		token, err := jwthandling.GenerateRefreshToken(time.Minute, "user-1", testSignKey)
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("valid token for deleted account", func(t *testing.T) {
		token, err := jwthandling.GenerateAccessToken(time.Minute, "gone-user", testSignKey)
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestOptionalUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/maybe", func(c *gin.Context) {
		userID, ok := OptionalUserID(c, testSignKey)
		c.JSON(http.StatusOK, gin.H{"userID": userID, "authenticated": ok})
	})

	t.Run("without token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/maybe", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("with valid token", func(t *testing.T) {
		token, err := jwthandling.GenerateAccessToken(time.Minute, "user-9", testSignKey)
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest(http.MethodGet, "/maybe", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
		if body := w.Body.String(); !strings.Contains(body, "user-9") {
			t.Errorf("expected resolved user id in response, got %s", body)
		}
	})
}
