package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	mw "github.com/vidtube/vidtube-backend/pkg/apihelpers/middlewares"
	vidtubedb "github.com/vidtube/vidtube-backend/pkg/db/vidtube"
	jwthandling "github.com/vidtube/vidtube-backend/pkg/jwt-handling"
	"github.com/vidtube/vidtube-backend/pkg/user-management/pwhash"
	userTypes "github.com/vidtube/vidtube-backend/pkg/user-management/types"
	umUtils "github.com/vidtube/vidtube-backend/pkg/user-management/utils"
)

const (
	// Consecutive failed logins before the account is locked.
	loginAttemptLimit = 5
	// How long a locked account stays locked. The lock expires on its own;
	// there is no unlock endpoint.
	accountLockDuration = 10 * time.Minute
)

func (h *HttpEndpoints) AddAuthAPI(rg *gin.RouterGroup, loginLimiter gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", mw.RequirePayload(), h.register)
		authGroup.POST("/login", loginLimiter, mw.RequirePayload(), h.login)
		authGroup.POST("/refresh", h.refreshSession)
		authGroup.POST("/logout", mw.AuthRequired(h.tokens.AccessSignKey, h.userStore), h.logout)
	}
}

type RegisterReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

func (h *HttpEndpoints) register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}

	req.Username = umUtils.SanitizeUsername(req.Username)
	req.Email = umUtils.SanitizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	var fieldErrs []string
	if !umUtils.CheckUsernameFormat(req.Username) {
		fieldErrs = append(fieldErrs, "username must be 3-30 characters of lowercase letters, digits, dot, underscore or hyphen")
	}
	if !umUtils.CheckEmailFormat(req.Email) {
		fieldErrs = append(fieldErrs, "email address is not valid")
	}
	if req.FullName == "" {
		fieldErrs = append(fieldErrs, "full name is required")
	}
	if !umUtils.CheckPasswordFormat(req.Password) {
		fieldErrs = append(fieldErrs, "password must be at least 8 characters and mix at least three character classes")
	}
	if len(fieldErrs) > 0 {
		slog.Warn("registration with invalid fields", slog.String("username", req.Username))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid registration fields", fieldErrs...))
		return
	}

	hashedPassword, err := pwhash.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to create account"))
		return
	}

	now := h.now().Unix()
	user := userTypes.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: hashedPassword,
		Timestamps: userTypes.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	id, err := h.userStore.AddUser(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, vidtubedb.ErrDuplicateKey) {
			slog.Warn("registration with taken username or email", slog.String("username", req.Username))
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindConflict, "username or email already in use"))
			return
		}
		slog.Error("failed to create user", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to create account"))
		return
	}

	createdUser, err := h.userStore.GetUserByID(c.Request.Context(), id)
	if err != nil {
		slog.Error("failed to load created user", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to create account"))
		return
	}

	slog.Info("user registered", slog.String("subject", id))
	apihelpers.WriteData(c, http.StatusCreated, createdUser.Public(), "account created")
}

type LoginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HttpEndpoints) login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "invalid request payload"))
		return
	}

	identifier := umUtils.SanitizeUsername(req.Username)
	if identifier == "" {
		identifier = umUtils.SanitizeEmail(req.Email)
	}
	if identifier == "" || req.Password == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "username or email and password are required"))
		return
	}

	user, err := h.userStore.GetUserForLogin(c.Request.Context(), identifier)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			slog.Error("failed to look up user for login", slog.String("error", err.Error()))
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "login failed"))
			return
		}
		// Same response as a wrong password, to not leak which accounts exist.
		slog.Warn("login attempt for unknown account", slog.String("identifier", identifier))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindUnauthenticated, "invalid credentials"))
		return
	}

	if user.IsLocked(h.now()) {
		slog.Warn("login attempt on locked account", slog.String("subject", user.ID.Hex()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindAccountLocked, "account temporarily locked due to too many failed login attempts"))
		return
	}

	match, err := pwhash.ComparePasswordWithHash(user.Password, req.Password)
	if err != nil || !match {
		if err != nil {
			slog.Error("failed to compare password hash", slog.String("error", err.Error()))
		}
		h.recordFailedLogin(c, user)
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindUnauthenticated, "invalid credentials"))
		return
	}

	accessToken, err := jwthandling.GenerateAccessToken(h.tokens.AccessExpiresIn, user.ID.Hex(), h.tokens.AccessSignKey)
	if err != nil {
		slog.Error("failed to generate access token", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "login failed"))
		return
	}
	refreshToken, err := jwthandling.GenerateRefreshToken(h.tokens.RefreshExpiresIn, user.ID.Hex(), h.tokens.RefreshSignKey)
	if err != nil {
		slog.Error("failed to generate refresh token", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "login failed"))
		return
	}

	// Resets the attempt counter, clears any expired lock and stores the
	// refresh token in one update.
	if err := h.userStore.RecordSuccessfulLogin(c.Request.Context(), user.ID.Hex(), refreshToken); err != nil {
		slog.Error("failed to record successful login", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "login failed"))
		return
	}

	h.setSessionCookies(c, accessToken, refreshToken)

	slog.Info("login successful", slog.String("subject", user.ID.Hex()))
	apihelpers.WriteData(c, http.StatusOK, gin.H{
		"user":         user.Public(),
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"expiresIn":    h.tokens.AccessExpiresIn.Seconds(),
	}, "login successful")
}

// recordFailedLogin advances the attempt counter and, when this failure
// reaches the limit, sets the lock deadline in the same update. The
// decision is made from the count loaded with the user; the increment
// itself is atomic in the store.
func (h *HttpEndpoints) recordFailedLogin(c *gin.Context, user userTypes.User) {
	var lockUntil *time.Time
	if user.LoginAttempts+1 >= loginAttemptLimit {
		until := h.now().Add(accountLockDuration)
		lockUntil = &until
		slog.Warn("account locked after repeated failed logins", slog.String("subject", user.ID.Hex()))
	} else {
		slog.Warn("login attempt with wrong password", slog.String("subject", user.ID.Hex()))
	}
	if err := h.userStore.RecordFailedLoginAttempt(c.Request.Context(), user.ID.Hex(), lockUntil); err != nil {
		slog.Error("failed to record failed login attempt", slog.String("error", err.Error()))
	}
}

type RefreshTokenReq struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *HttpEndpoints) refreshSession(c *gin.Context) {
	presentedToken, err := apihelpers.ReadRefreshTokenCookie(c.Request)
	if err != nil || presentedToken == "" {
		var req RefreshTokenReq
		if err := c.ShouldBindJSON(&req); err == nil {
			presentedToken = req.RefreshToken
		}
	}
	if presentedToken == "" {
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindUnauthenticated, "refresh token is required"))
		return
	}

	claims, err := jwthandling.ValidateSessionToken(presentedToken, h.tokens.RefreshSignKey, jwthandling.TOKEN_USE_REFRESH)
	if err != nil {
		if errors.Is(err, jwthandling.ErrTokenExpired) {
			slog.Warn("refresh attempt with expired token")
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindExpiredToken, "refresh token expired"))
			return
		}
		slog.Warn("refresh attempt with invalid token", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInvalidToken, "refresh token invalid"))
		return
	}
	userID := claims.Subject

	exists, err := h.userStore.UserExists(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to check account existence", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to refresh session"))
		return
	}
	if !exists {
		slog.Warn("refresh attempt for unknown account", slog.String("subject", userID))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindUnauthenticated, "authentication required"))
		return
	}

	accessToken, err := jwthandling.GenerateAccessToken(h.tokens.AccessExpiresIn, userID, h.tokens.AccessSignKey)
	if err != nil {
		slog.Error("failed to generate access token", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to refresh session"))
		return
	}
	nextRefreshToken, err := jwthandling.GenerateRefreshToken(h.tokens.RefreshExpiresIn, userID, h.tokens.RefreshSignKey)
	if err != nil {
		slog.Error("failed to generate refresh token", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to refresh session"))
		return
	}

	// Compare-and-swap against the stored token. A mismatch means this
	// token was already rotated or revoked: a replay.
	err = h.userStore.RotateRefreshToken(c.Request.Context(), userID, presentedToken, nextRefreshToken)
	if err != nil {
		if errors.Is(err, vidtubedb.ErrRefreshTokenMismatch) {
			slog.Warn("refresh token reuse detected", slog.String("subject", userID))
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindTokenReuse, "refresh token already used"))
			return
		}
		slog.Error("failed to rotate refresh token", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "failed to refresh session"))
		return
	}

	h.setSessionCookies(c, accessToken, nextRefreshToken)

	slog.Info("session refreshed", slog.String("subject", userID))
	apihelpers.WriteData(c, http.StatusOK, gin.H{
		"accessToken":  accessToken,
		"refreshToken": nextRefreshToken,
		"expiresIn":    h.tokens.AccessExpiresIn.Seconds(),
	}, "session refreshed")
}

func (h *HttpEndpoints) logout(c *gin.Context) {
	userID := c.GetString(mw.ContextKeyUserID)

	if err := h.userStore.ClearRefreshToken(c.Request.Context(), userID); err != nil {
		slog.Error("failed to clear refresh token", slog.String("error", err.Error()))
		apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "logout failed"))
		return
	}

	apihelpers.ClearSessionCookies(c.Writer, h.cookies)

	slog.Info("logout", slog.String("subject", userID))
	apihelpers.WriteData(c, http.StatusOK, nil, "logged out")
}

func (h *HttpEndpoints) setSessionCookies(c *gin.Context, accessToken string, refreshToken string) {
	apihelpers.SetSessionCookies(c.Writer,
		accessToken, refreshToken,
		int(h.tokens.AccessExpiresIn.Seconds()),
		int(h.tokens.RefreshExpiresIn.Seconds()),
		h.cookies,
	)
}
