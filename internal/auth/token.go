package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie the admin dashboard stores its session token in.
const CookieName = "admin_token"

// ExtractAccessToken returns the admin token from the session cookie or,
// failing that, an Authorization bearer header. Empty means none was sent.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
