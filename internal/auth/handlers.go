package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/security"
)

// Handler exposes HTTP handlers for authentication and account endpoints.
type Handler struct {
	Service           *Service
	AccessCookieName  string
	RefreshCookieName string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite
	// CSRF issues the double-submit cookie next to the access cookie.
	CSRF security.CSRF
}

// tokenResponse echoes the refresh token only when no refresh cookie is configured.
type tokenResponse struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"access_token"`
	AccessExpiry time.Time `json:"access_token_expires_at"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return false
	}
	return true
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in RegisterInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	user, err := h.Service.Register(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": user})
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in LoginInput
	if err := common.DecodeAndValidate(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.Service.Login(r.Context(), in, r.UserAgent(), common.ClientIP(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.respondTokens(w, result)
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token comes from the
// cookie, or from a JSON body for clients that cannot hold cookies.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	result, err := h.Service.Refresh(r.Context(), h.refreshTokenFromRequest(r))
	if err != nil {
		h.clearAuthCookies(w)
		common.WriteError(w, err)
		return
	}
	h.respondTokens(w, result)
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if token := h.refreshTokenFromRequest(r); token != "" {
		_ = h.Service.Logout(r.Context(), token)
	}
	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	user, err := h.Service.Me(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

func (h *Handler) respondTokens(w http.ResponseWriter, result LoginResult) {
	h.setAuthCookies(w, result)
	resp := tokenResponse{User: result.User, AccessToken: result.AccessToken, AccessExpiry: result.AccessExpiry}
	if h.RefreshCookieName == "" {
		resp.RefreshToken = result.RefreshToken
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

func (h *Handler) cookie(name, value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   h.CookieDomain,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	}
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, result LoginResult) {
	if h.AccessCookieName != "" {
		http.SetCookie(w, h.cookie(h.AccessCookieName, result.AccessToken, result.AccessExpiry, 0))
		_ = h.CSRF.Issue(w, h.CookieDomain, h.CookieSecure, result.AccessExpiry)
	}
	if h.RefreshCookieName != "" {
		http.SetCookie(w, h.cookie(h.RefreshCookieName, result.RefreshToken, result.RefreshExpiry, 0))
	}
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	if h.AccessCookieName != "" {
		http.SetCookie(w, h.cookie(h.AccessCookieName, "", time.Time{}, -1))
		h.CSRF.Clear(w, h.CookieDomain, h.CookieSecure)
	}
	if h.RefreshCookieName != "" {
		http.SetCookie(w, h.cookie(h.RefreshCookieName, "", time.Time{}, -1))
	}
}

func (h *Handler) refreshTokenFromRequest(r *http.Request) string {
	if h.RefreshCookieName != "" {
		if cookie, err := r.Cookie(h.RefreshCookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
			return strings.TrimSpace(cookie.Value)
		}
	}
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.RefreshToken)
}
