package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

const (
	claimTenant = "tid"
	claimRoles  = "roles"
)

// Claims is the verified content of an access token.
type Claims struct {
	UserID   string
	TenantID string
	Roles    []string
}

func (s *Service) signAccessToken(user dbgen.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(common.UUIDString(user.ID)).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(claimTenant, common.UUIDString(user.TenantID)).
		Claim(claimRoles, user.Roles).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func unauthorized(msg string, err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", msg, http.StatusUnauthorized, err)
}

// ParseAccessToken validates an access token and returns its claims.
func (s *Service) ParseAccessToken(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, unauthorized("missing token", nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	if algorithm != s.policy.alg {
		return Claims{}, unauthorized("invalid token", fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	if err := s.policy.check(parsed, s.now()); err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	return claimsOf(parsed), nil
}

// tokenPolicy is what an access token must satisfy once its signature
// verifies: our issuer and audience, a live validity window, a subject and
// the tenant and roles claims.
type tokenPolicy struct {
	issuer   string
	audience string
	skew     time.Duration
	alg      jwa.SignatureAlgorithm
}

func (p tokenPolicy) check(tok jwt.Token, now time.Time) error {
	err := jwt.Validate(tok,
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(p.skew),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(claimTenant),
		jwt.WithRequiredClaim(claimRoles),
	)
	if err != nil {
		return err
	}
	if tid, _ := tok.Get(claimTenant); tid == "" {
		return errors.New("auth: empty tenant claim")
	}
	return nil
}

func claimsOf(tok jwt.Token) Claims {
	c := Claims{UserID: tok.Subject()}
	if v, ok := tok.Get(claimTenant); ok {
		c.TenantID, _ = v.(string)
	}
	if v, ok := tok.Get(claimRoles); ok {
		switch roles := v.(type) {
		case []string:
			c.Roles = roles
		case []any:
			for _, r := range roles {
				if str, ok := r.(string); ok {
					c.Roles = append(c.Roles, str)
				}
			}
		}
	}
	return c
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}
