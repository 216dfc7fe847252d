package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
	jwthandling "github.com/vidtube/vidtube-backend/pkg/jwt-handling"
)

const (
	ContextKeyUserID       = "userID"
	ContextKeyAccessClaims = "accessClaims"
)

// AccountChecker is the narrow storage contract the auth gate needs: a
// valid token for a deleted account must still be rejected.
type AccountChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

func extractAccessToken(c *gin.Context) (string, error) {
	if token, err := apihelpers.ReadAccessTokenCookie(c.Request); err == nil && token != "" {
		return token, nil
	}

	auth := c.GetHeader("Authorization")
	if auth != "" {
		token := strings.TrimPrefix(auth, "Bearer ")
		if token != "" && token != auth {
			return token, nil
		}
	}
	return "", errors.New("no access token in cookie or Authorization header")
}

// AuthRequired authenticates the request from the access token cookie or
// bearer header and attaches the resolved account id to the context.
// Downstream handlers re-verify ownership per operation; they never trust
// the attached identity for mutations blindly.
func AuthRequired(accessTokenSignKey string, accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractAccessToken(c)
		if err != nil {
			slog.Warn("request without access token", slog.String("path", c.FullPath()))
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindUnauthenticated, "authentication required"))
			return
		}

		claims, err := jwthandling.ValidateSessionToken(token, accessTokenSignKey, jwthandling.TOKEN_USE_ACCESS)
		if err != nil {
			kind := apihelpers.KindInvalidToken
			if errors.Is(err, jwthandling.ErrTokenExpired) {
				kind = apihelpers.KindExpiredToken
			}
			slog.Warn("access token validation failed", slog.String("error", err.Error()))
			apihelpers.WriteError(c, apihelpers.NewAPIError(kind, "invalid or expired session"))
			return
		}

		exists, err := accounts.UserExists(c.Request.Context(), claims.Subject)
		if err != nil {
			slog.Error("failed to check account existence", slog.String("error", err.Error()))
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindInternal, "internal server error"))
			return
		}
		if !exists {
			slog.Warn("access token for unknown account", slog.String("subject", claims.Subject))
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindUnauthenticated, "authentication required"))
			return
		}

		c.Set(ContextKeyUserID, claims.Subject)
		c.Set(ContextKeyAccessClaims, claims)
		c.Next()
	}
}

// OptionalUserID resolves the account id from a session token when one is
// present and valid. Public endpoints use this to personalize responses
// without requiring authentication; a missing or bad token is not an error.
func OptionalUserID(c *gin.Context, accessTokenSignKey string) (string, bool) {
	token, err := extractAccessToken(c)
	if err != nil {
		return "", false
	}
	claims, err := jwthandling.ValidateSessionToken(token, accessTokenSignKey, jwthandling.TOKEN_USE_ACCESS)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}
