package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
)

const defaultCSRFName = "X-CSRF-Token"

// CSRF is the double-submit check for cookie sessions: an unsafe request
// that carries SessionCookie must echo the CSRF cookie in the header of the
// same name. Bearer-token and anonymous callers are not checked. With no
// SessionCookie every unsafe request is checked.
type CSRF struct {
	Header        string
	SessionCookie string
}

func (c CSRF) name() string {
	if h := strings.TrimSpace(c.Header); h != "" {
		return h
	}
	return defaultCSRFName
}

// Issue sets a fresh CSRF cookie readable by the web client. It lives as
// long as the session cookie it accompanies.
func (c CSRF) Issue(w http.ResponseWriter, domain string, secure bool, expires time.Time) error {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    base64.RawURLEncoding.EncodeToString(buf),
		Domain:   domain,
		Path:     "/",
		Expires:  expires,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Clear expires the CSRF cookie.
func (c CSRF) Clear(w http.ResponseWriter, domain string, secure bool) {
	http.SetCookie(w, &http.Cookie{Name: c.name(), Domain: domain, Path: "/", MaxAge: -1, Secure: secure})
}

func (c CSRF) exempt(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return true
	}
	if c.SessionCookie == "" {
		return false
	}
	_, err := r.Cookie(c.SessionCookie)
	return err != nil
}

func (c CSRF) Middleware(next http.Handler) http.Handler {
	name := c.name()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		sent := strings.TrimSpace(r.Header.Get(name))
		if sent == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "missing csrf token", nil)
			return
		}
		cookie, err := r.Cookie(name)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "missing csrf cookie", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(sent), []byte(strings.TrimSpace(cookie.Value))) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF_INVALID", "invalid csrf token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
