package jwthandling

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TOKEN_USE_ACCESS  = "access"
	TOKEN_USE_REFRESH = "refresh"
)

var (
	// ErrTokenExpired marks a token that was correctly signed but is past
	// its expiry. Callers may react to this differently (expired access
	// token -> try refresh) than to ErrTokenInvalid (-> force re-login).
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Information a session token encodes. The payload carries the account
// identifier only, never credentials or role claims.
type SessionTokenClaims struct {
	TokenUse string `json:"token_use,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a short-lived stateless token for the user.
func GenerateAccessToken(
	expiresIn time.Duration,
	userID string,
	secretKey string,
) (tokenString string, err error) {
	return generateSessionToken(expiresIn, userID, TOKEN_USE_ACCESS, secretKey)
}

// GenerateRefreshToken creates a longer-lived token for the user. The jti
// claim makes every issued refresh token unique, so rotation always
// produces a distinct value even within the same second.
func GenerateRefreshToken(
	expiresIn time.Duration,
	userID string,
	secretKey string,
) (tokenString string, err error) {
	return generateSessionToken(expiresIn, userID, TOKEN_USE_REFRESH, secretKey)
}

func generateSessionToken(expiresIn time.Duration, userID string, tokenUse string, secretKey string) (string, error) {
	claims := SessionTokenClaims{
		tokenUse,
		jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// ValidateSessionToken checks signature and expiry of a session token and
// that it was minted for the expected use with the expected secret.
func ValidateSessionToken(tokenString string, secretKey string, expectedUse string) (*SessionTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*SessionTokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenUse != expectedUse {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
