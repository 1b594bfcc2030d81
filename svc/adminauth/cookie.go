package adminauth

import (
	"net/http"
	"time"
)

// CookieName carries the session token.
const CookieName = "admin_session"

// SetCookie writes the session cookie for token.
func (s *Service) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, s.cookie(token, int(s.cfg.ttl()/time.Second)))
}

// ClearCookie expires the session cookie in the browser.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	c := s.cookie("", 0)
	// MaxAge 0 on http.Cookie omits the attribute, -1 renders Max-Age=0.
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func (s *Service) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// TokenFromRequest returns the session token from the request cookie, or "".
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
