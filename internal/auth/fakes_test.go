package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// fakeQueries keeps accounts and sessions in memory. referralCollisions makes
// the next N inserts fail on the referral code index.
type fakeQueries struct {
	mu                 sync.Mutex
	users              []dbgen.User
	sessions           map[string]dbgen.Session
	referralCollisions int
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{sessions: make(map[string]dbgen.Session)}
}

func newUUID() pgtype.UUID { return pgtype.UUID{Bytes: uuid.New(), Valid: true} }

func (f *fakeQueries) CreateUser(_ context.Context, arg dbgen.CreateUserParams) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.referralCollisions > 0 {
		f.referralCollisions--
		return dbgen.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_tenant_id_referral_code_key"}
	}
	for _, u := range f.users {
		if u.TenantID == arg.TenantID && strings.EqualFold(u.Email, arg.Email) {
			return dbgen.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_tenant_id_email_key"}
		}
	}
	u := dbgen.User{
		ID: newUUID(), TenantID: arg.TenantID, Name: arg.Name, Email: arg.Email, Phone: arg.Phone,
		PasswordHash: arg.PasswordHash, Roles: arg.Roles, ReferralCode: arg.ReferralCode, ReferredBy: arg.ReferredBy,
	}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeQueries) find(match func(dbgen.User) bool) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return u, nil
		}
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func (f *fakeQueries) GetUserByEmail(_ context.Context, arg dbgen.GetUserByEmailParams) (dbgen.User, error) {
	return f.find(func(u dbgen.User) bool { return u.TenantID == arg.TenantID && u.Email == arg.Email })
}

func (f *fakeQueries) GetUserByID(_ context.Context, id pgtype.UUID) (dbgen.User, error) {
	return f.find(func(u dbgen.User) bool { return u.ID == id })
}

func (f *fakeQueries) GetUserByReferralCode(_ context.Context, arg dbgen.GetUserByReferralCodeParams) (dbgen.User, error) {
	return f.find(func(u dbgen.User) bool { return u.TenantID == arg.TenantID && u.ReferralCode == arg.ReferralCode })
}

func (f *fakeQueries) CreateSession(_ context.Context, arg dbgen.CreateSessionParams) (dbgen.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := dbgen.Session{
		ID: newUUID(), TenantID: arg.TenantID, UserID: arg.UserID, RefreshToken: arg.RefreshToken,
		UserAgent: arg.UserAgent, Ip: arg.Ip, ExpiresAt: arg.ExpiresAt,
	}
	f.sessions[arg.RefreshToken] = s
	return s, nil
}

func (f *fakeQueries) GetSessionByToken(_ context.Context, token string) (dbgen.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return dbgen.Session{}, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeQueries) RotateSessionToken(_ context.Context, arg dbgen.RotateSessionTokenParams) (dbgen.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.sessions {
		if s.ID == arg.ID {
			delete(f.sessions, token)
			s.RefreshToken = arg.RefreshToken
			s.ExpiresAt = arg.ExpiresAt
			f.sessions[arg.RefreshToken] = s
			return s, nil
		}
	}
	return dbgen.Session{}, pgx.ErrNoRows
}

func (f *fakeQueries) DeleteSessionByToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

type recordingEmitter struct {
	topics   []string
	payloads []any
}

func (e *recordingEmitter) Emit(_ context.Context, topic string, _ pgtype.UUID, payload any) (dbgen.DomainEvent, error) {
	e.topics = append(e.topics, topic)
	e.payloads = append(e.payloads, payload)
	return dbgen.DomainEvent{Topic: topic}, nil
}
