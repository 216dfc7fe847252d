package apihandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	vidtubedb "github.com/vidtube/vidtube-backend/pkg/db/vidtube"
	"github.com/vidtube/vidtube-backend/pkg/user-management/pwhash"
	userTypes "github.com/vidtube/vidtube-backend/pkg/user-management/types"
)

// memUserStore is an in-memory UserStore used to exercise the HTTP layer
// without a database. It mirrors the storage layer's atomicity guarantees
// with a single mutex.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]userTypes.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]userTypes.User)}
}

func (s *memUserStore) AddUser(ctx context.Context, user userTypes.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return "", vidtubedb.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	s.users[user.ID.Hex()] = user
	return user.ID.Hex(), nil
}

func (s *memUserStore) GetUserByID(ctx context.Context, userID string) (userTypes.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return userTypes.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func (s *memUserStore) UserExists(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *memUserStore) GetUserForLogin(ctx context.Context, usernameOrEmail string) (userTypes.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == usernameOrEmail || u.Email == usernameOrEmail {
			return u, nil
		}
	}
	return userTypes.User{}, mongo.ErrNoDocuments
}

func (s *memUserStore) RecordFailedLoginAttempt(ctx context.Context, userID string, lockUntil *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.LoginAttempts++
	if lockUntil != nil {
		until := *lockUntil
		u.LockUntil = &until
	}
	s.users[userID] = u
	return nil
}

func (s *memUserStore) RecordSuccessfulLogin(ctx context.Context, userID string, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.CurrentRefreshToken = refreshToken
	u.Timestamps.LastLogin = time.Now().Unix()
	s.users[userID] = u
	return nil
}

func (s *memUserStore) RotateRefreshToken(ctx context.Context, userID string, presentedToken string, nextToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.CurrentRefreshToken != presentedToken {
		return vidtubedb.ErrRefreshTokenMismatch
	}
	u.CurrentRefreshToken = nextToken
	s.users[userID] = u
	return nil
}

func (s *memUserStore) ClearRefreshToken(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.CurrentRefreshToken = ""
	s.users[userID] = u
	return nil
}

func (s *memUserStore) UpdateUserFields(ctx context.Context, userID string, fields bson.M) (userTypes.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return userTypes.User{}, mongo.ErrNoDocuments
	}
	if v, ok := fields["fullName"]; ok {
		u.FullName = v.(string)
	}
	if v, ok := fields["email"]; ok {
		u.Email = v.(string)
	}
	if v, ok := fields["avatar"]; ok {
		u.Avatar = v.(string)
	}
	if v, ok := fields["coverImage"]; ok {
		u.CoverImage = v.(string)
	}
	s.users[userID] = u
	return u, nil
}

func (s *memUserStore) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.Password = passwordHash
	s.users[userID] = u
	return nil
}

func (s *memUserStore) getUser(t *testing.T, userID string) userTypes.User {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		t.Fatalf("user %s not in store", userID)
	}
	return u
}

const (
	testAccessSignKey  = "test-access-sign-key"
	testRefreshSignKey = "test-refresh-sign-key"
	testPassword       = "Secret123"
)

func init() {
	gin.SetMode(gin.TestMode)
	// small params so hashing stays fast in tests
	pwhash.InitArgonParams(16*1024, 1, 1)
}

func newTestServer(store *memUserStore) (*HttpEndpoints, *gin.Engine) {
	h := NewHTTPHandler(store, nil, nil, TokenConfig{
		AccessSignKey:    testAccessSignKey,
		RefreshSignKey:   testRefreshSignKey,
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: 7 * 24 * time.Hour,
	}, apihelpers.CookieConfig{Secure: true})

	router := gin.New()
	noLimit := func(c *gin.Context) { c.Next() }
	h.AddAuthAPI(router.Group("/v1"), noLimit)
	return h, router
}

func addTestUser(t *testing.T, store *memUserStore, username string) string {
	t.Helper()
	hashed, err := pwhash.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	id, err := store.AddUser(context.Background(), userTypes.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test User",
		Password: hashed,
	})
	if err != nil {
		t.Fatalf("failed to add user: %v", err)
	}
	return id
}

func doJSONRequest(router *gin.Engine, method string, path string, payload interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func responseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response body %q: %v", w.Body.String(), err)
	}
	return resp
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	res := http.Response{Header: w.Header()}
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestRegister(t *testing.T) {
	store := newMemUserStore()
	_, router := newTestServer(store)

	t.Run("with invalid fields", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/register", gin.H{
			"username": "x",
			"email":    "not-an-email",
			"fullName": "",
			"password": "short",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		resp := responseEnvelope(t, w)
		if resp["success"] != false {
			t.Errorf("expected success=false, got %v", resp["success"])
		}
		errs, ok := resp["errors"].([]interface{})
		if !ok || len(errs) != 4 {
			t.Errorf("expected 4 field errors, got %v", resp["errors"])
		}
	})

	t.Run("valid", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/register", gin.H{
			"username": "Alice",
			"email":    "Alice@Example.com",
			"fullName": "Alice A.",
			"password": testPassword,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		resp := responseEnvelope(t, w)
		data := resp["data"].(map[string]interface{})
		if data["username"] != "alice" {
			t.Errorf("expected sanitized username alice, got %v", data["username"])
		}
		if data["email"] != "alice@example.com" {
			t.Errorf("expected sanitized email, got %v", data["email"])
		}
		if _, leaked := data["password"]; leaked {
			t.Error("password must not appear in responses")
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/register", gin.H{
			"username": "alice",
			"email":    "other@example.com",
			"fullName": "Other",
			"password": testPassword,
		})
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", w.Code)
		}
	})
}

func TestLoginRoundTrip(t *testing.T) {
	store := newMemUserStore()
	_, router := newTestServer(store)
	userID := addTestUser(t, store, "bob")

	t.Run("wrong password", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "bob",
			"password": "WrongPass1",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
		if got := store.getUser(t, userID).LoginAttempts; got != 1 {
			t.Errorf("expected 1 failed attempt recorded, got %d", got)
		}
	})

	t.Run("unknown account gets the same message", func(t *testing.T) {
		wUnknown := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "nobody",
			"password": "WrongPass1",
		})
		wKnown := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "bob",
			"password": "WrongPass1",
		})
		if wUnknown.Code != wKnown.Code {
			t.Errorf("status codes differ: %d vs %d", wUnknown.Code, wKnown.Code)
		}
		msgUnknown := responseEnvelope(t, wUnknown)["message"]
		msgKnown := responseEnvelope(t, wKnown)["message"]
		if msgUnknown != msgKnown {
			t.Errorf("messages differ: %v vs %v", msgUnknown, msgKnown)
		}
	})

	var refreshCookie *http.Cookie
	t.Run("successful login", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "bob",
			"password": testPassword,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		accessCookie := findCookie(w, apihelpers.CookieNameAccessToken)
		refreshCookie = findCookie(w, apihelpers.CookieNameRefreshToken)
		if accessCookie == nil || refreshCookie == nil {
			t.Fatal("expected access and refresh token cookies")
		}
		for _, cookie := range []*http.Cookie{accessCookie, refreshCookie} {
			if !cookie.HttpOnly {
				t.Errorf("cookie %s must be HttpOnly", cookie.Name)
			}
			if !cookie.Secure {
				t.Errorf("cookie %s must be Secure", cookie.Name)
			}
			if cookie.SameSite != http.SameSiteStrictMode {
				t.Errorf("cookie %s must be SameSite=Strict", cookie.Name)
			}
		}

		u := store.getUser(t, userID)
		if u.LoginAttempts != 0 {
			t.Errorf("expected attempt counter reset, got %d", u.LoginAttempts)
		}
		if u.CurrentRefreshToken != refreshCookie.Value {
			t.Error("stored refresh token does not match issued cookie")
		}
	})

	t.Run("logout clears session", func(t *testing.T) {
		loginW := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "bob",
			"password": testPassword,
		})
		accessCookie := findCookie(loginW, apihelpers.CookieNameAccessToken)
		refreshBefore := findCookie(loginW, apihelpers.CookieNameRefreshToken)

		w := doJSONRequest(router, http.MethodPost, "/v1/auth/logout", nil, accessCookie)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		cleared := findCookie(w, apihelpers.CookieNameAccessToken)
		if cleared == nil || cleared.MaxAge != -1 {
			t.Error("expected access cookie cleared with MaxAge -1")
		}
		if store.getUser(t, userID).CurrentRefreshToken != "" {
			t.Error("expected stored refresh token cleared")
		}

		// The refresh token from before logout must be rejected.
		refreshW := doJSONRequest(router, http.MethodPost, "/v1/auth/refresh", nil, refreshBefore)
		if refreshW.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for revoked refresh token, got %d", refreshW.Code)
		}
	})

	t.Run("logout without token", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/logout", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestAccountLockout(t *testing.T) {
	store := newMemUserStore()
	h, router := newTestServer(store)
	userID := addTestUser(t, store, "carol")

	baseTime := time.Now()
	h.now = func() time.Time { return baseTime }

	failLogin := func() *httptest.ResponseRecorder {
		return doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "carol",
			"password": "WrongPass1",
		})
	}

	for i := 1; i < loginAttemptLimit; i++ {
		w := failLogin()
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, w.Code)
		}
		u := store.getUser(t, userID)
		if u.LoginAttempts != int64(i) {
			t.Fatalf("attempt %d: expected counter %d, got %d", i, i, u.LoginAttempts)
		}
		if u.LockUntil != nil {
			t.Fatalf("attempt %d: account must not be locked yet", i)
		}
	}

	// attempt number loginAttemptLimit locks the account
	if w := failLogin(); w.Code != http.StatusUnauthorized {
		t.Fatalf("locking attempt: expected 401, got %d", w.Code)
	}
	u := store.getUser(t, userID)
	if u.LockUntil == nil {
		t.Fatal("expected lock deadline set")
	}
	if got, want := *u.LockUntil, baseTime.Add(accountLockDuration); !got.Equal(want) {
		t.Errorf("expected lock until %v, got %v", want, got)
	}

	t.Run("correct password while locked", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "carol",
			"password": testPassword,
		})
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403 while locked, got %d", w.Code)
		}
		// a rejected attempt while locked must not extend the lock
		if got := store.getUser(t, userID).LockUntil; !got.Equal(baseTime.Add(accountLockDuration)) {
			t.Errorf("lock deadline changed: %v", got)
		}
	})

	t.Run("lock expires on its own", func(t *testing.T) {
		h.now = func() time.Time { return baseTime.Add(accountLockDuration + time.Second) }

		w := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
			"username": "carol",
			"password": testPassword,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 after lock expiry, got %d: %s", w.Code, w.Body.String())
		}
		u := store.getUser(t, userID)
		if u.LoginAttempts != 0 || u.LockUntil != nil {
			t.Errorf("expected counter and lock reset, got attempts=%d lock=%v", u.LoginAttempts, u.LockUntil)
		}
	})
}

func TestRefreshRotation(t *testing.T) {
	store := newMemUserStore()
	_, router := newTestServer(store)
	addTestUser(t, store, "dave")

	loginW := doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
		"username": "dave",
		"password": testPassword,
	})
	if loginW.Code != http.StatusOK {
		t.Fatalf("login failed: %d", loginW.Code)
	}
	firstRefresh := findCookie(loginW, apihelpers.CookieNameRefreshToken)

	t.Run("rotation issues a new token", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/refresh", nil, firstRefresh)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		next := findCookie(w, apihelpers.CookieNameRefreshToken)
		if next == nil {
			t.Fatal("expected new refresh token cookie")
		}
		if next.Value == firstRefresh.Value {
			t.Error("rotation must issue a different refresh token")
		}
	})

	t.Run("replay of rotated token is rejected", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/refresh", nil, firstRefresh)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for replayed token, got %d", w.Code)
		}
		resp := responseEnvelope(t, w)
		// external message must not reveal the reuse detection
		if resp["message"] != "invalid or expired session" {
			t.Errorf("unexpected external message: %v", resp["message"])
		}
	})

	t.Run("token in request body works too", func(t *testing.T) {
		// grab the currently valid token from the store
		var current string
		store.mu.Lock()
		for _, u := range store.users {
			current = u.CurrentRefreshToken
		}
		store.mu.Unlock()

		w := doJSONRequest(router, http.MethodPost, "/v1/auth/refresh", gin.H{
			"refreshToken": current,
		})
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doJSONRequest(router, http.MethodPost, "/v1/auth/refresh", gin.H{
			"refreshToken": "not-a-jwt",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestConcurrentFailedLogins(t *testing.T) {
	store := newMemUserStore()
	_, router := newTestServer(store)
	userID := addTestUser(t, store, "eve")

	const attempts = 4

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doJSONRequest(router, http.MethodPost, "/v1/auth/login", gin.H{
				"username": "eve",
				"password": "WrongPass1",
			})
		}()
	}
	wg.Wait()

	// no increment may be lost
	if got := store.getUser(t, userID).LoginAttempts; got != attempts {
		t.Errorf("expected %d recorded attempts, got %d", attempts, got)
	}
}
