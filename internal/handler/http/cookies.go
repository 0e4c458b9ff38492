package http

import (
	"net/http"
	"time"

	"github.com/tusharag6/homestead-api/internal/domain"
)

// Session cookie names.
const (
	cookieToken        = "token"
	cookieAccessToken  = "accessToken"
	cookieRefreshToken = "refreshToken"
)

// sessionCookies writes and clears the HTTP-only cookies carrying session
// credentials.
type sessionCookies struct {
	paired bool
	secure bool
}

// accessNames lists the cookies consulted when resolving a session.
func (c sessionCookies) accessNames() []string {
	if c.paired {
		return []string{cookieAccessToken}
	}
	return []string{cookieToken}
}

// refreshNames lists the cookies consulted on refresh.
func (c sessionCookies) refreshNames() []string {
	if c.paired {
		return []string{cookieRefreshToken}
	}
	return []string{cookieToken}
}

func (c sessionCookies) set(w http.ResponseWriter, tokens domain.Tokens) {
	if c.paired {
		http.SetCookie(w, c.cookie(cookieAccessToken, tokens.AccessToken, tokens.AccessTokenTTL))
		http.SetCookie(w, c.cookie(cookieRefreshToken, tokens.RefreshToken, tokens.RefreshTokenTTL))
		return
	}
	http.SetCookie(w, c.cookie(cookieToken, tokens.Token, tokens.TokenTTL))
}

func (c sessionCookies) clear(w http.ResponseWriter) {
	names := []string{cookieToken}
	if c.paired {
		names = []string{cookieAccessToken, cookieRefreshToken}
	}
	for _, name := range names {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}

func (c sessionCookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
