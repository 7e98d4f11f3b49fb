package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

func issue(t *testing.T, svc *Service, tenantID string) (string, string) {
	t.Helper()
	userID := uuid.New()
	token, _, err := svc.signAccessToken(dbgen.User{
		ID:       common.ToUUID(userID),
		TenantID: common.ToUUID(uuid.MustParse(tenantID)),
		Roles:    []string{common.RoleStaff},
	})
	require.NoError(t, err)
	return token, userID.String()
}

func whoami(w http.ResponseWriter, r *http.Request) {
	id, _ := common.UserID(r.Context())
	_, _ = w.Write([]byte(id))
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)
	mw := Middleware{Service: svc, AccessCookie: "resto_at"}
	token, userID := issue(t, svc, tenantA)
	h := mw.Authenticate(http.HandlerFunc(whoami))

	serve := func(mutate func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil).WithContext(tenantCtx(tenantA))
		mutate(req)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := serve(func(*http.Request) {})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, rr.Body.String())

	rr = serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	require.Equal(t, userID, rr.Body.String())

	rr = serve(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "resto_at", Value: token}) })
	require.Equal(t, userID, rr.Body.String())

	rr = serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") })
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "resto_at", Value: "stale"}) })
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, rr.Body.String())
}

func TestRequireAuthRejectsForeignTenant(t *testing.T) {
	svc, _, _ := newTestService(t)
	mw := Middleware{Service: svc}
	token, _ := issue(t, svc, tenantB)
	h := mw.RequireAuth(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil).WithContext(tenantCtx(tenantA))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil).WithContext(tenantCtx(tenantA))
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
