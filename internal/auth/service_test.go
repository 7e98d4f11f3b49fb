package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

var (
	tenantA = uuid.NewString()
	tenantB = uuid.NewString()
)

func tenantCtx(id string) context.Context {
	return tenant.WithInfo(context.Background(), tenant.Info{ID: id, Slug: "resto"})
}

func newTestService(t *testing.T) (*Service, *fakeQueries, *recordingEmitter) {
	t.Helper()
	queries := newFakeQueries()
	emitter := &recordingEmitter{}
	svc, err := NewService(Config{
		Queries:         queries,
		Events:          emitter,
		Secret:          "super-secret-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "backend-resto",
		Audience:        "resto-web",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, queries, emitter
}

func mustRegister(t *testing.T, svc *Service, ctx context.Context, in RegisterInput) User {
	t.Helper()
	u, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("register %s: %v", in.Email, err)
	}
	return u
}

func appCode(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func TestRegisterAssignsReferralCodeAndEmitsSignup(t *testing.T) {
	svc, queries, emitter := newTestService(t)
	ctx := tenantCtx(tenantA)

	ana := mustRegister(t, svc, ctx, RegisterInput{Name: "Ana", Email: "Ana@Example.com", Password: "password123"})
	if ana.Email != "ana@example.com" {
		t.Fatalf("email not normalised: %s", ana.Email)
	}
	if len(ana.ReferralCode) != 8 {
		t.Fatalf("unexpected referral code %q", ana.ReferralCode)
	}
	if len(ana.Roles) != 1 || ana.Roles[0] != common.RoleCustomer {
		t.Fatalf("unexpected roles %v", ana.Roles)
	}

	queries.referralCollisions = 1
	budi := mustRegister(t, svc, ctx, RegisterInput{
		Name: "Budi", Email: "budi@example.com", Password: "password123", ReferralCode: ana.ReferralCode,
	})
	if len(emitter.topics) != 2 || emitter.topics[1] != events.TopicUserSignedUp {
		t.Fatalf("unexpected topics %v", emitter.topics)
	}
	signup := emitter.payloads[1].(events.UserSignedUp)
	if signup.UserID != budi.ID || signup.ReferrerID != ana.ID {
		t.Fatalf("unexpected signup payload %+v", signup)
	}
}

func TestRegisterRejections(t *testing.T) {
	svc, _, emitter := newTestService(t)
	ctx := tenantCtx(tenantA)
	mustRegister(t, svc, ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})

	_, err := svc.Register(ctx, RegisterInput{Name: "Ana 2", Email: "ana@example.com", Password: "password123"})
	if appCode(err) != "EMAIL_ALREADY_USED" || !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected duplicate email conflict, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterInput{Name: "Cici", Email: "cici@example.com", Password: "password123", ReferralCode: "NOPE1234"})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected unknown referral rejection, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterInput{Name: "Dodi", Email: "dodi@example.com", Password: "short"})
	if appCode(err) != "VALIDATION_FAILED" {
		t.Fatalf("expected validation failure, got %v", err)
	}

	// The same email is free in another tenant.
	mustRegister(t, svc, tenantCtx(tenantB), RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	if len(emitter.topics) != 2 {
		t.Fatalf("expected 2 signups, got %d", len(emitter.topics))
	}
}

func TestLoginIssuesTenantScopedToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := tenantCtx(tenantA)
	user := mustRegister(t, svc, ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})

	if _, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong-pass"}, "", ""); appCode(err) != "INVALID_CREDENTIALS" {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(tenantCtx(tenantB), LoginInput{Email: "ana@example.com", Password: "password123"}, "", ""); appCode(err) != "INVALID_CREDENTIALS" {
		t.Fatalf("expected other tenant login to fail, got %v", err)
	}

	result, err := svc.Login(ctx, LoginInput{Email: "ANA@example.com", Password: "password123"}, "test-agent", "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.ParseAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.TenantID != tenantA {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != common.RoleCustomer {
		t.Fatalf("unexpected roles %v", claims.Roles)
	}
}

func TestParseAccessTokenRejectsAlgorithmMismatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	built, err := jwt.NewBuilder().
		Subject("user-id").
		Issuer(svc.issuer).
		Audience([]string{svc.audience}).
		IssuedAt(fixed).
		Expiration(fixed.Add(svc.accessTTL)).
		Claim(claimTenant, tenantA).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS384, svc.secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ParseAccessToken(string(signed)); err == nil {
		t.Fatal("expected algorithm mismatch error")
	}
}

func TestParseAccessTokenExpires(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := tenantCtx(tenantA)
	mustRegister(t, svc, ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	start := time.Now()
	svc.WithNow(func() time.Time { return start })
	result, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "password123"}, "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	svc.WithNow(func() time.Time { return start.Add(2 * time.Minute) })
	if _, err := svc.ParseAccessToken(result.AccessToken); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestRefreshRotateAndLogout(t *testing.T) {
	svc, queries, _ := newTestService(t)
	ctx := tenantCtx(tenantA)
	mustRegister(t, svc, ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})

	handler := &Handler{Service: svc, AccessCookieName: "at", RefreshCookieName: "rt", CookieSameSite: http.SameSiteLaxMode}

	loginReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"email":"ana@example.com","password":"password123"}`)).WithContext(ctx)
	loginRec := httptest.NewRecorder()
	handler.Login(loginRec, loginReq)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("unexpected login status: %d %s", loginRec.Code, loginRec.Body.String())
	}
	var payload struct {
		Data tokenResponse `json:"data"`
	}
	if err := json.NewDecoder(loginRec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login payload: %v", err)
	}
	if payload.Data.AccessToken == "" || payload.Data.RefreshToken != "" {
		t.Fatalf("expected access token only in body, got %+v", payload.Data)
	}
	cookie := findCookie(loginRec.Result().Cookies(), "rt")
	if cookie == nil {
		t.Fatal("expected refresh cookie after login")
	}
	original := cookie.Value
	if findCookie(loginRec.Result().Cookies(), "X-CSRF-Token") == nil {
		t.Fatal("expected csrf cookie next to the access cookie")
	}

	refreshReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil).WithContext(ctx)
	refreshReq.AddCookie(cookie)
	refreshRec := httptest.NewRecorder()
	handler.Refresh(refreshRec, refreshReq)
	if refreshRec.Code != http.StatusOK {
		t.Fatalf("unexpected refresh status: %d", refreshRec.Code)
	}
	rotated := findCookie(refreshRec.Result().Cookies(), "rt")
	if rotated == nil || rotated.Value == original {
		t.Fatal("expected refresh token rotation")
	}
	if _, ok := queries.sessions[hashRefreshToken(original)]; ok {
		t.Fatal("expected old session token replaced")
	}

	// Reuse of the old token and use from another tenant both fail.
	for _, c := range []struct {
		ctx   context.Context
		token string
	}{{ctx, original}, {tenantCtx(tenantB), rotated.Value}} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil).WithContext(c.ctx)
		req.AddCookie(&http.Cookie{Name: "rt", Value: c.token})
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected unauthorized refresh, got %d", rec.Code)
		}
	}

	logoutReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil).WithContext(ctx)
	logoutReq.AddCookie(rotated)
	logoutRec := httptest.NewRecorder()
	handler.Logout(logoutRec, logoutReq)
	if logoutRec.Code != http.StatusNoContent {
		t.Fatalf("unexpected logout status: %d", logoutRec.Code)
	}
	cleared := findCookie(logoutRec.Result().Cookies(), "rt")
	if cleared == nil || cleared.MaxAge != -1 {
		t.Fatal("expected cookie clearing on logout")
	}
	if len(queries.sessions) != 0 {
		t.Fatalf("expected no sessions after logout, got %d", len(queries.sessions))
	}
}

func TestRefreshFromBodyWithoutCookie(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := tenantCtx(tenantA)
	mustRegister(t, svc, ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	result, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "password123"}, "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	handler := &Handler{Service: svc}
	body, _ := json.Marshal(map[string]string{"refresh_token": result.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected refresh status: %d", rec.Code)
	}
	var payload struct {
		Data tokenResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.RefreshToken == "" || payload.Data.RefreshToken == result.RefreshToken {
		t.Fatal("expected a rotated refresh token in the body")
	}
}

func TestRequireAuthChecksTenantAndSetsRoles(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := tenantCtx(tenantA)
	mustRegister(t, svc, ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	result, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "password123"}, "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mw := Middleware{Service: svc}
	var gotRoles []string
	protected := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRoles = common.Roles(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	call := func(ctx context.Context, token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me/orders", nil).WithContext(ctx)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(ctx, ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := call(tenantCtx(tenantB), result.AccessToken); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign tenant, got %d", code)
	}
	if code := call(ctx, result.AccessToken); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(gotRoles) != 1 || gotRoles[0] != common.RoleCustomer {
		t.Fatalf("unexpected roles %v", gotRoles)
	}
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := tenantCtx(tenantA)
	user := mustRegister(t, svc, ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})

	h := &Handler{Service: svc}
	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil).WithContext(common.WithUserID(ctx, user.ID)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil).WithContext(common.WithUserID(tenantCtx(tenantB), user.ID)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 across tenants, got %d", rec.Code)
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
