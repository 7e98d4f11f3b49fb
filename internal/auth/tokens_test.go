package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func TestTokenPolicyCheck(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := tokenPolicy{issuer: "backend-resto", audience: "resto-clients", skew: time.Second, alg: jwa.HS256}

	base := func() *jwt.Builder {
		return jwt.NewBuilder().
			Issuer("backend-resto").
			Audience([]string{"resto-clients"}).
			Subject("user-1").
			IssuedAt(now).
			NotBefore(now).
			Expiration(now.Add(15*time.Minute)).
			Claim(claimTenant, "tenant-1").
			Claim(claimRoles, []string{"customer"})
	}
	cases := []struct {
		name  string
		build func() *jwt.Builder
		ok    bool
	}{
		{"valid", base, true},
		{"foreign issuer", func() *jwt.Builder { return base().Issuer("toko") }, false},
		{"foreign audience", func() *jwt.Builder { return base().Audience([]string{"other"}) }, false},
		{"expired", func() *jwt.Builder { return base().Expiration(now.Add(-time.Minute)) }, false},
		{"not yet valid", func() *jwt.Builder { return base().NotBefore(now.Add(5 * time.Minute)) }, false},
		{"no tenant", func() *jwt.Builder {
			return jwt.NewBuilder().Issuer("backend-resto").Audience([]string{"resto-clients"}).Subject("user-1").
				Expiration(now.Add(time.Minute)).Claim(claimRoles, []string{"customer"})
		}, false},
		{"empty tenant", func() *jwt.Builder { return base().Claim(claimTenant, "") }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := tc.build().Build()
			require.NoError(t, err)
			err = policy.check(tok, now)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestParseAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	svc, _, _ := newTestService(t)
	tok, err := jwt.NewBuilder().Subject("user-1").Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS512, []byte("test-secret")))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(string(signed))
	require.Error(t, err)
}
