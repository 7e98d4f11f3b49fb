package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/repo"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	referralAttempts  = 3
)

// Querier is the subset of dbgen used for accounts and sessions.
type Querier interface {
	CreateUser(ctx context.Context, arg dbgen.CreateUserParams) (dbgen.User, error)
	GetUserByEmail(ctx context.Context, arg dbgen.GetUserByEmailParams) (dbgen.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
	GetUserByReferralCode(ctx context.Context, arg dbgen.GetUserByReferralCodeParams) (dbgen.User, error)
	CreateSession(ctx context.Context, arg dbgen.CreateSessionParams) (dbgen.Session, error)
	GetSessionByToken(ctx context.Context, refreshToken string) (dbgen.Session, error)
	RotateSessionToken(ctx context.Context, arg dbgen.RotateSessionTokenParams) (dbgen.Session, error)
	DeleteSessionByToken(ctx context.Context, refreshToken string) error
}

// Service coordinates registration, credential checks and session persistence.
type Service struct {
	queries    Querier
	events     events.Emitter
	log        zerolog.Logger
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	signer     jwa.SignatureAlgorithm
	policy     tokenPolicy
	issuer     string
	audience   string
	clockSkew  time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries         Querier
	Events          events.Emitter
	Logger          zerolog.Logger
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// User represents a safe subset of the user model returned to clients.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	Roles        []string  `json:"roles"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User          User      `json:"user"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"-"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshExpiry time.Time `json:"-"`
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Email        string  `json:"email" validate:"required,email,max=254"`
	Password     string  `json:"password" validate:"required,min=8,max=128"`
	Phone        *string `json:"phone" validate:"omitempty,max=32"`
	ReferralCode string  `json:"referral_code" validate:"omitempty,max=32"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-resto"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "resto-web"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		queries:    cfg.Queries,
		events:     cfg.Events,
		log:        cfg.Logger,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		signer:     jwa.HS256,
		policy:     tokenPolicy{issuer: issuer, audience: audience, skew: clockSkew, alg: jwa.HS256},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func invalidCredentials() *common.AppError {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}

func invalidRefresh() *common.AppError {
	return common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
}

// Register creates a customer account in the current tenant. A valid
// referral code links the new account to its referrer.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return User{}, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := common.ValidateStruct(in); err != nil {
		return User{}, err
	}

	var referrer pgtype.UUID
	if code := strings.ToUpper(strings.TrimSpace(in.ReferralCode)); code != "" {
		ref, err := s.queries.GetUserByReferralCode(ctx, dbgen.GetUserByReferralCodeParams{TenantID: tid, ReferralCode: code})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return User{}, common.BadRequest("referral_code", "unknown referral code", nil)
			}
			return User{}, fmt.Errorf("lookup referral code: %w", err)
		}
		referrer = ref.ID
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	var created dbgen.User
	for attempt := 0; ; attempt++ {
		created, err = s.queries.CreateUser(ctx, dbgen.CreateUserParams{
			TenantID:     tid,
			Name:         in.Name,
			Email:        in.Email,
			Phone:        common.TextPtr(in.Phone),
			PasswordHash: hash,
			Roles:        []string{common.RoleCustomer},
			ReferralCode: common.HumanCode("", 8),
			ReferredBy:   referrer,
		})
		if err == nil {
			break
		}
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
			return User{}, fmt.Errorf("create user: %w", err)
		}
		if !strings.Contains(pgErr.ConstraintName, "referral") || attempt+1 >= referralAttempts {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict,
				errors.Join(common.ErrConflict, err))
		}
	}

	if s.events != nil {
		payload := events.UserSignedUp{
			UserID: common.UUIDString(created.ID),
			Email:  created.Email,
			Name:   created.Name,
		}
		if referrer.Valid {
			payload.ReferrerID = common.UUIDString(referrer)
		}
		if _, err := s.events.Emit(ctx, events.TopicUserSignedUp, created.ID, payload); err != nil {
			s.log.Warn().Err(err).Str("user", payload.UserID).Msg("emit signup event")
		}
	}
	return convertUser(created), nil
}

// Login verifies credentials and issues a new access token and refresh session.
func (s *Service) Login(ctx context.Context, in LoginInput, userAgent, ip string) (LoginResult, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return LoginResult{}, invalidCredentials()
	}
	user, err := s.queries.GetUserByEmail(ctx, dbgen.GetUserByEmailParams{TenantID: tid, Email: email})
	if err != nil {
		return LoginResult{}, invalidCredentials()
	}
	ok, err := argon2id.ComparePasswordAndHash(in.Password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials()
	}

	access, accessExpiry, err := s.signAccessToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExpiry, err := s.createSession(ctx, user, userAgent, ip)
	if err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	return LoginResult{
		User:          convertUser(user),
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout revokes the refresh session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.queries.DeleteSessionByToken(ctx, hashRefreshToken(token))
}

// Refresh rotates a refresh token and issues a fresh access token. Roles are
// re-read so demotions take effect on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return LoginResult{}, invalidRefresh()
	}
	hashed := hashRefreshToken(token)
	session, err := s.queries.GetSessionByToken(ctx, hashed)
	if err != nil || session.TenantID != tid {
		return LoginResult{}, invalidRefresh()
	}
	if !session.ExpiresAt.Valid || s.now().After(session.ExpiresAt.Time) {
		_ = s.queries.DeleteSessionByToken(ctx, hashed)
		return LoginResult{}, invalidRefresh()
	}
	user, err := s.queries.GetUserByID(ctx, session.UserID)
	if err != nil || user.TenantID != tid {
		_ = s.queries.DeleteSessionByToken(ctx, hashed)
		return LoginResult{}, invalidRefresh()
	}

	access, accessExpiry, err := s.signAccessToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	next, hashedNext, refreshExpiry, err := s.newRefreshToken()
	if err != nil {
		return LoginResult{}, err
	}
	if _, err := s.queries.RotateSessionToken(ctx, dbgen.RotateSessionTokenParams{
		ID:           session.ID,
		RefreshToken: hashedNext,
		ExpiresAt:    common.Timestamptz(refreshExpiry),
	}); err != nil {
		_ = s.queries.DeleteSessionByToken(ctx, hashed)
		return LoginResult{}, fmt.Errorf("rotate session token: %w", err)
	}
	return LoginResult{
		User:          convertUser(user),
		AccessToken:   access,
		RefreshToken:  next,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Me fetches the current authenticated user.
func (s *Service) Me(ctx context.Context) (User, error) {
	tid, err := repo.TenantID(ctx)
	if err != nil {
		return User{}, err
	}
	raw, ok := common.UserID(ctx)
	if !ok {
		return User{}, common.Unauthorized()
	}
	id, err := common.ParseUUID("user_id", raw)
	if err != nil {
		return User{}, common.Unauthorized()
	}
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil || user.TenantID != tid {
		return User{}, common.Unauthorized()
	}
	return convertUser(user), nil
}

func (s *Service) createSession(ctx context.Context, user dbgen.User, userAgent, ip string) (string, time.Time, error) {
	token, hashed, expiresAt, err := s.newRefreshToken()
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := s.queries.CreateSession(ctx, dbgen.CreateSessionParams{
		TenantID:     user.TenantID,
		UserID:       user.ID,
		RefreshToken: hashed,
		UserAgent:    common.Text(userAgent),
		Ip:           common.Text(ip),
		ExpiresAt:    common.Timestamptz(expiresAt),
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *Service) newRefreshToken() (string, string, time.Time, error) {
	token, err := generateToken(48)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, hashRefreshToken(token), s.now().Add(s.refreshTTL), nil
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func convertUser(u dbgen.User) User {
	return User{
		ID:           common.UUIDString(u.ID),
		Name:         u.Name,
		Email:        u.Email,
		Phone:        common.StringPtr(u.Phone),
		Roles:        u.Roles,
		ReferralCode: u.ReferralCode,
		CreatedAt:    u.CreatedAt.Time,
	}
}
