package auth

import "net/http"

// SessionCookieName is the cookie carrying the session token on every
// authenticated request.
const SessionCookieName = "AUTH-COOKIE"

// SetSessionCookie attaches the session token to the response. No Max-Age or
// Expires: the token itself never expires, it is only replaced by the next
// login.
func SetSessionCookie(w http.ResponseWriter, token, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Domain:   domain,
		Path:     "/",
		HttpOnly: true,
	})
}

// GetSessionTokenFromCookie extracts the session token from the request.
// Returns an empty string when the cookie is absent.
func GetSessionTokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
