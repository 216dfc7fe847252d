package apihelpers

import (
	"net/http"
)

const (
	CookieNameAccessToken  = "accessToken"
	CookieNameRefreshToken = "refreshToken"
)

type CookieConfig struct {
	Domain string // empty = current host only
	Secure bool
}

// SetSessionCookies transports both tokens to the browser. HttpOnly keeps
// them away from page scripts, SameSite=Strict blocks cross-site sends.
func SetSessionCookies(w http.ResponseWriter, accessToken string, refreshToken string, accessMaxAge int, refreshMaxAge int, config CookieConfig) {
	http.SetCookie(w, sessionCookie(CookieNameAccessToken, accessToken, accessMaxAge, config))
	http.SetCookie(w, sessionCookie(CookieNameRefreshToken, refreshToken, refreshMaxAge, config))
}

// ClearSessionCookies deletes both cookies. The attributes must match the
// ones used at set time or the browser keeps the cookie.
func ClearSessionCookies(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, sessionCookie(CookieNameAccessToken, "", -1, config))
	http.SetCookie(w, sessionCookie(CookieNameRefreshToken, "", -1, config))
}

func sessionCookie(name string, value string, maxAge int, config CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func ReadAccessTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieNameAccessToken)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func ReadRefreshTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieNameRefreshToken)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
